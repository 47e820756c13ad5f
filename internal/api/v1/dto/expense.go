package dto

import "time"

// ExpenseCreateDTO records one purchase against a member
type ExpenseCreateDTO struct {
	ExpenseAmount   float64 `json:"expenseAmount" validate:"required,gt=0"`
	TransactionDate string  `json:"transactionDate" validate:"required"`
}

type ExpenseDTO struct {
	ID              int64     `json:"id"`
	ExpenseAmount   float64   `json:"expenseAmount"`
	TransactionDate time.Time `json:"transactionDate"`
	PrvType         string    `json:"prvType"`
	ExpensePoint    int       `json:"expensePoint"`
}

type PrivilegeDTO struct {
	ID                 int64     `json:"id"`
	UserID             int64     `json:"userId"`
	PrvType            string    `json:"prvType"`
	PrvExpiredDate     time.Time `json:"prvExpiredDate"`
	CurrentAmount      float64   `json:"currentAmount"`
	TotalAmountPerYear float64   `json:"totalAmountPerYear"`
	CurrentPoint       int       `json:"currentPoint"`
	PrvLicenseID       int64     `json:"prvLicenseId"`
	IsPurchased        bool      `json:"isPurchased"`
}

type ExpenseReportDataDTO struct {
	TotalAmountPerYear float64      `json:"totalAmountPerYear"`
	PrvType            string       `json:"prvType"`
	CurrentPoint       int          `json:"currentPoint"`
	Expenses           []ExpenseDTO `json:"expenses"`
}

type ExpenseReportResponseDTO struct {
	Message string               `json:"message"`
	Data    ExpenseReportDataDTO `json:"data"`
}

type AddExpenseResponseDTO struct {
	Message   string       `json:"message"`
	Expense   ExpenseDTO   `json:"expense"`
	Privilege PrivilegeDTO `json:"privilege"`
}

type DeleteExpenseResponseDTO struct {
	Message          string       `json:"message"`
	UpdatedPrivilege PrivilegeDTO `json:"updatedPrivilege"`
}
