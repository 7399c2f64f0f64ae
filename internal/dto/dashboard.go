package dto

type CategoryTotalResponse struct {
	Category string `json:"category"`
	Total    string `json:"total"`
	Count    int64  `json:"count"`
}

type MonthlyTotalResponse struct {
	Month string `json:"month"`
	Total string `json:"total"`
	Count int64  `json:"count"`
}

type DashboardResponse struct {
	Since      string                  `json:"since"`
	Income     string                  `json:"income"`
	Expenses   string                  `json:"expenses"`
	Balance    string                  `json:"balance"`
	Categories []CategoryTotalResponse `json:"categories"`
	Months     []MonthlyTotalResponse  `json:"months"`
}
