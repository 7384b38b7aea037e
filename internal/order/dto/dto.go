package dto

type OrderFilters struct {
	Status   string
	Page     int
	PageSize int
}
