package constants

// 用户角色常量
const (
	RoleUser  = "user"
	RoleRider = "rider"
	RoleAdmin = "admin"
)

// 用户账号状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 包裹支付状态常量
const (
	ParcelPaymentUnpaid = "unpaid"
	ParcelPaymentPaid   = "paid"
)

// 包裹配送状态常量
const (
	DeliveryStatusNone      = "none"
	DeliveryStatusPending   = "pending"
	DeliveryStatusPicked    = "picked"
	DeliveryStatusDelivered = "delivered"
	DeliveryStatusCancelled = "cancelled"
)

// 支付流水状态常量（与网关状态映射一致）
const (
	PaymentStatusSuccess = "success"
	PaymentStatusPending = "pending"
	PaymentStatusFailed  = "failed"
)

// 骑手申请状态常量
const (
	RiderStatusPending  = "pending"
	RiderStatusApproved = "approved"
	RiderStatusRejected = "rejected"
)

// 运单号前缀（运单号格式：DEL-YYYYMMDD-16位大写HEX）
const (
	TrackingIDPrefix = "DEL"
)

// 队列名称常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型常量
const (
	TaskParcelStatusEmail  = "parcel:status_email"
	TaskRiderDecisionEmail = "rider:decision_email"
)
