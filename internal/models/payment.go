package models

import (
	"time"
)

// Payment 支付流水（只追加账本，创建后不修改不删除）
// TransactionID 是网关侧交易号，也是对账幂等键。
type Payment struct {
	ID              uint       `gorm:"primarykey" json:"id"`                          // 主键
	ParcelID        uint       `gorm:"index;not null" json:"parcel_id"`               // 包裹ID
	TransactionID   string     `gorm:"uniqueIndex;not null" json:"transaction_id"`    // 网关交易号（幂等键）
	SessionID       string     `gorm:"index" json:"session_id"`                       // 网关会话号
	Amount          Money      `gorm:"type:decimal(20,2);not null" json:"amount"`     // 支付金额
	Currency        string     `gorm:"not null" json:"currency"`                      // 币种
	Status          string     `gorm:"index;not null" json:"status"`                  // 支付状态
	CustomerEmail   string     `gorm:"index" json:"customer_email"`                   // 付款人邮箱
	ProviderPayload JSON       `gorm:"type:json" json:"provider_payload,omitempty"`   // 网关原始数据
	PaidAt          *time.Time `gorm:"index" json:"paid_at"`                          // 支付时间
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`                       // 创建时间
}

// TableName 指定表名
func (Payment) TableName() string {
	return "payments"
}
