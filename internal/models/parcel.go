package models

import (
	"time"

	"gorm.io/gorm"
)

// Parcel 包裹表
// 身份与计价字段创建后不可变；状态字段仅由支付对账与配送生命周期修改。
type Parcel struct {
	ID            uint   `gorm:"primarykey" json:"id"` // 主键
	SenderName    string `gorm:"index;not null" json:"sender_name"`
	SenderEmail   string `gorm:"index;not null" json:"sender_email"`
	SenderPhone   string `gorm:"type:varchar(40)" json:"sender_phone"`
	PickupAddress string `gorm:"type:text" json:"pickup_address"`

	ReceiverName    string `gorm:"not null" json:"receiver_name"`
	ReceiverPhone   string `gorm:"type:varchar(40)" json:"receiver_phone"`
	DeliveryAddress string `gorm:"type:text" json:"delivery_address"`

	PackageType   string `gorm:"not null" json:"package_type"` // 计价费率表键
	WeightKG      Money  `gorm:"type:decimal(10,2);not null" json:"weight_kg"`
	LengthCM      Money  `gorm:"type:decimal(10,2);not null;default:0" json:"length_cm"`
	WidthCM       Money  `gorm:"type:decimal(10,2);not null;default:0" json:"width_cm"`
	HeightCM      Money  `gorm:"type:decimal(10,2);not null;default:0" json:"height_cm"`
	DeclaredValue Money  `gorm:"type:decimal(20,2);not null;default:0" json:"declared_value"`
	Fragile       bool   `gorm:"not null;default:false" json:"fragile"`
	Hazardous     bool   `gorm:"not null;default:false" json:"hazardous"`
	DeliverySpeed string `gorm:"default:'standard'" json:"delivery_speed"`

	Cost           Money  `gorm:"type:decimal(20,2);not null;default:0" json:"cost"` // 服务端计价结果
	PaymentStatus  string `gorm:"index;not null;default:'unpaid'" json:"payment_status"`
	DeliveryStatus string `gorm:"index;not null;default:'none'" json:"delivery_status"`

	RiderEmail string  `gorm:"index" json:"rider_email,omitempty"`       // 取件骑手
	TrackingID *string `gorm:"uniqueIndex" json:"tracking_id,omitempty"` // 支付确认时生成，仅赋值一次

	PickedAt    *time.Time     `json:"picked_at"`    // 取件时间
	DeliveredAt *time.Time     `json:"delivered_at"` // 送达时间
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName 指定表名
func (Parcel) TableName() string {
	return "parcels"
}
