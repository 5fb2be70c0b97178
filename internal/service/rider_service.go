package service

import (
	"strings"
	"time"

	"github.com/courier-next/internal/constants"
	"github.com/courier-next/internal/logger"
	"github.com/courier-next/internal/models"
	"github.com/courier-next/internal/queue"
	"github.com/courier-next/internal/repository"

	"gorm.io/gorm"
)

// RiderService 骑手申请服务
type RiderService struct {
	db          *gorm.DB
	riderRepo   repository.RiderRepository
	userRepo    repository.UserRepository
	queueClient *queue.Client
}

// NewRiderService 创建骑手申请服务
func NewRiderService(db *gorm.DB, riderRepo repository.RiderRepository, userRepo repository.UserRepository, queueClient *queue.Client) *RiderService {
	return &RiderService{
		db:          db,
		riderRepo:   riderRepo,
		userRepo:    userRepo,
		queueClient: queueClient,
	}
}

// ApplyInput 骑手申请输入
type ApplyInput struct {
	FullName         string
	Email            string
	Phone            string
	Address          string
	NIDNumber        string
	DrivingLicense   string
	VehicleType      string
	VehicleNumber    string
	ExperienceYears  int
	EmergencyContact string
}

// Apply 提交骑手申请, 每个邮箱仅允许一条
func (s *RiderService) Apply(input ApplyInput) (*models.RiderApplication, error) {
	normalized, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}

	exist, err := s.riderRepo.GetByEmail(normalized)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrRiderApplicationExists
	}

	now := time.Now()
	application := &models.RiderApplication{
		FullName:         strings.TrimSpace(input.FullName),
		Email:            normalized,
		Phone:            strings.TrimSpace(input.Phone),
		Address:          strings.TrimSpace(input.Address),
		NIDNumber:        strings.TrimSpace(input.NIDNumber),
		DrivingLicense:   strings.TrimSpace(input.DrivingLicense),
		VehicleType:      strings.ToLower(strings.TrimSpace(input.VehicleType)),
		VehicleNumber:    strings.TrimSpace(input.VehicleNumber),
		ExperienceYears:  input.ExperienceYears,
		EmergencyContact: strings.TrimSpace(input.EmergencyContact),
		Status:           constants.RiderStatusPending,
		AppliedAt:        now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.riderRepo.Create(application); err != nil {
		return nil, err
	}

	logger.Infow("rider_application_submitted", "application_id", application.ID, "email", normalized)
	return application, nil
}

// GetByEmail 查询邮箱名下申请
func (s *RiderService) GetByEmail(email string) (*models.RiderApplication, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	application, err := s.riderRepo.GetByEmail(normalized)
	if err != nil {
		return nil, err
	}
	if application == nil {
		return nil, ErrNotFound
	}
	return application, nil
}

// List 管理端申请列表
func (s *RiderService) List(filter repository.RiderListFilter) ([]models.RiderApplication, int64, error) {
	return s.riderRepo.List(filter)
}

// Approve 批准申请并在同一事务内把对应用户提升为骑手
func (s *RiderService) Approve(applicationID uint, decidedBy string) (*models.RiderApplication, error) {
	return s.decide(applicationID, constants.RiderStatusApproved, decidedBy)
}

// Reject 驳回申请, 不影响用户角色
func (s *RiderService) Reject(applicationID uint, decidedBy string) (*models.RiderApplication, error) {
	return s.decide(applicationID, constants.RiderStatusRejected, decidedBy)
}

func (s *RiderService) decide(applicationID uint, decision, decidedBy string) (*models.RiderApplication, error) {
	application, err := s.riderRepo.GetByID(applicationID)
	if err != nil {
		return nil, err
	}
	if application == nil {
		return nil, ErrNotFound
	}
	if application.Status != constants.RiderStatusPending {
		return nil, ErrRiderApplicationDecided
	}

	now := time.Now()
	application.Status = decision
	application.DecidedAt = &now
	application.DecidedBy = strings.ToLower(strings.TrimSpace(decidedBy))
	application.UpdatedAt = now

	err = s.db.Transaction(func(tx *gorm.DB) error {
		riderRepo := s.riderRepo.WithTx(tx)
		if err := riderRepo.Update(application); err != nil {
			return err
		}
		if decision == constants.RiderStatusApproved {
			userRepo := s.userRepo.WithTx(tx)
			user, err := userRepo.GetByEmail(application.Email)
			if err != nil {
				return err
			}
			// 角色提升仅对管理员保持原样, 普通用户晋升为骑手
			if user != nil && user.Role != constants.RoleAdmin {
				if err := userRepo.UpdateRole(user.ID, constants.RoleRider); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		logger.Errorw("rider_application_decide_failed", "application_id", applicationID, "decision", decision, "error", err)
		return nil, err
	}

	logger.Infow("rider_application_decided",
		"application_id", applicationID,
		"decision", decision,
		"decided_by", application.DecidedBy,
	)

	if s.queueClient != nil {
		if err := s.queueClient.EnqueueRiderDecisionEmail(queue.RiderDecisionEmailPayload{
			ApplicationID: applicationID,
			Decision:      decision,
		}); err != nil {
			logger.Errorw("rider_decision_email_enqueue_failed", "application_id", applicationID, "error", err)
		}
	}

	return application, nil
}
