package service

import "errors"

// 服务层哨兵错误, 由 handler 映射到响应码
var (
	ErrNotFound           = errors.New("记录不存在")
	ErrForbidden          = errors.New("无权访问")
	ErrInvalidEmail       = errors.New("邮箱格式无效")
	ErrEmailExists        = errors.New("邮箱已注册")
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrUserDisabled       = errors.New("账号已禁用")
	ErrWeakPassword       = errors.New("密码强度不足")
	ErrInvalidToken       = errors.New("无效的 token")
	ErrInvalidRole        = errors.New("未知角色")

	ErrParcelNotPayable     = errors.New("包裹当前状态不可支付")
	ErrParcelNotDeletable   = errors.New("包裹已支付不可删除")
	ErrPaymentNotCompleted  = errors.New("支付未完成")
	ErrGatewayNotConfigured = errors.New("支付网关未配置")
	ErrStatusConflict       = errors.New("配送状态已变更")
	ErrNotAssignedRider     = errors.New("包裹未分配给当前骑手")

	ErrRiderApplicationExists  = errors.New("骑手申请已存在")
	ErrRiderApplicationDecided = errors.New("骑手申请已处理")

	ErrEmailServiceDisabled      = errors.New("邮件服务未启用")
	ErrEmailServiceNotConfigured = errors.New("邮件服务未配置")
)
