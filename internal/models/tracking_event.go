package models

import (
	"time"
)

// TrackingEvent 运单事件（只追加日志，创建后不修改）
// 读取按 created_at、id 升序返回。
type TrackingEvent struct {
	ID         uint      `gorm:"primarykey" json:"id"`                 // 主键
	TrackingID string    `gorm:"index;not null" json:"tracking_id"`    // 运单号
	ParcelID   uint      `gorm:"index;not null" json:"parcel_id"`      // 包裹ID
	Status     string    `gorm:"not null" json:"status"`               // 状态标签
	ActorEmail string    `gorm:"not null" json:"actor_email"`          // 触发人邮箱
	RiderEmail string    `json:"rider_email,omitempty"`                // 关联骑手邮箱
	Note       string    `gorm:"type:text" json:"note,omitempty"`      // 备注
	CreatedAt  time.Time `gorm:"index" json:"created_at"`              // 创建时间
}

// TableName 指定表名
func (TrackingEvent) TableName() string {
	return "tracking_events"
}
