package models

import (
	"time"

	"gorm.io/gorm"
)

// RiderApplication 骑手申请表
// 申请由用户提交，状态仅由管理员变更；批准时同步提升用户角色。
type RiderApplication struct {
	ID               uint           `gorm:"primarykey" json:"id"`                     // 主键
	FullName         string         `gorm:"not null" json:"full_name"`                // 姓名
	Email            string         `gorm:"uniqueIndex;not null" json:"email"`        // 邮箱（每邮箱一份申请）
	Phone            string         `gorm:"type:varchar(40)" json:"phone"`            // 电话
	Address          string         `gorm:"type:text" json:"address"`                 // 地址
	NIDNumber        string         `gorm:"type:varchar(40)" json:"nid_number"`       // 身份证号
	DrivingLicense   string         `gorm:"type:varchar(60)" json:"driving_license"`  // 驾照号
	VehicleType      string         `gorm:"type:varchar(40)" json:"vehicle_type"`     // 车辆类型
	VehicleNumber    string         `gorm:"type:varchar(40)" json:"vehicle_number"`   // 车牌号
	ExperienceYears  int            `gorm:"default:0" json:"experience_years"`        // 驾龄
	EmergencyContact string         `gorm:"type:varchar(40)" json:"emergency_contact"` // 紧急联系人
	Status           string         `gorm:"index;not null;default:'pending'" json:"status"` // 申请状态
	AppliedAt        time.Time      `gorm:"index" json:"applied_at"`                  // 申请时间
	DecidedAt        *time.Time     `json:"decided_at"`                               // 审批时间
	DecidedBy        string         `json:"decided_by,omitempty"`                     // 审批管理员邮箱
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`                  // 创建时间
	UpdatedAt        time.Time      `gorm:"index" json:"updated_at"`                  // 更新时间
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`                           // 软删除时间
}

// TableName 指定表名
func (RiderApplication) TableName() string {
	return "rider_applications"
}
