package service

import (
	"github.com/courier-next/internal/models"
	"github.com/courier-next/internal/repository"
)

// TrackingService 运单查询服务
type TrackingService struct {
	parcelRepo   repository.ParcelRepository
	trackingRepo repository.TrackingRepository
}

// NewTrackingService 创建运单查询服务
func NewTrackingService(parcelRepo repository.ParcelRepository, trackingRepo repository.TrackingRepository) *TrackingService {
	return &TrackingService{parcelRepo: parcelRepo, trackingRepo: trackingRepo}
}

// TrackingView 运单历史视图
type TrackingView struct {
	Parcel *models.Parcel         `json:"parcel"`
	Events []models.TrackingEvent `json:"events"`
}

// History 按运单号查询包裹与事件, 仅发件人, 承运骑手或管理员可见
func (s *TrackingService) History(trackingID, actorEmail, actorRole string) (*TrackingView, error) {
	parcel, err := s.parcelRepo.GetByTrackingID(trackingID)
	if err != nil {
		return nil, err
	}
	if parcel == nil {
		return nil, ErrNotFound
	}
	if !canAccessParcel(parcel, actorEmail, actorRole) {
		return nil, ErrForbidden
	}

	events, err := s.trackingRepo.ListByTrackingID(trackingID)
	if err != nil {
		return nil, err
	}
	return &TrackingView{Parcel: parcel, Events: events}, nil
}
