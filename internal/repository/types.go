package repository

import "time"

// ParcelListFilter 查询包裹列表的过滤条件
type ParcelListFilter struct {
	Page           int
	PageSize       int
	SenderName     string
	SenderEmail    string
	DeliveryStatus string
	PaymentStatus  string
	PackageType    string
	RiderEmail     string
	Keyword        string
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
}

// PaymentListFilter 查询支付流水的过滤条件
type PaymentListFilter struct {
	Page          int
	PageSize      int
	ParcelID      uint
	CustomerEmail string
	Status        string
	PaidFrom      *time.Time
	PaidTo        *time.Time
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
}

// RiderListFilter 查询骑手申请的过滤条件
type RiderListFilter struct {
	Page        int
	PageSize    int
	Status      string
	Keyword     string
	AppliedFrom *time.Time
	AppliedTo   *time.Time
}

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page        int
	PageSize    int
	Keyword     string
	Role        string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
