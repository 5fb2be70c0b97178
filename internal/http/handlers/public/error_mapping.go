package public

import (
	"errors"

	"github.com/courier-next/internal/http/response"
	"github.com/courier-next/internal/pricing"
	"github.com/courier-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var parcelPricingErrorRules = []mappedHandlerError{
	{target: pricing.ErrPackageTypeRequired, code: response.CodeBadRequest, msg: "package type is required"},
	{target: pricing.ErrWeightInvalid, code: response.CodeBadRequest, msg: "weight must be greater than zero"},
	{target: pricing.ErrDimensionInvalid, code: response.CodeBadRequest, msg: "dimensions must not be negative"},
	{target: pricing.ErrDeclaredValueInvalid, code: response.CodeBadRequest, msg: "declared value must not be negative"},
}

var parcelCreateExtraErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, msg: "invalid email address"},
}

var parcelAccessErrorRules = []mappedHandlerError{
	{target: service.ErrNotFound, code: response.CodeNotFound, msg: "parcel not found"},
	{target: service.ErrForbidden, code: response.CodeForbidden, msg: "access denied"},
}

var parcelDeleteErrorRules = []mappedHandlerError{
	{target: service.ErrParcelNotDeletable, code: response.CodeBadRequest, msg: "paid parcels cannot be deleted"},
}

var checkoutErrorRules = []mappedHandlerError{
	{target: service.ErrNotFound, code: response.CodeNotFound, msg: "parcel not found"},
	{target: service.ErrForbidden, code: response.CodeForbidden, msg: "access denied"},
	{target: service.ErrParcelNotPayable, code: response.CodeBadRequest, msg: "parcel is not payable"},
	{target: service.ErrGatewayNotConfigured, code: response.CodeInternal, msg: "payment gateway is not configured"},
}

var paymentConfirmErrorRules = []mappedHandlerError{
	{target: service.ErrNotFound, code: response.CodeNotFound, msg: "payment session not found"},
	{target: service.ErrPaymentNotCompleted, code: response.CodeBadRequest, msg: "payment has not completed"},
	{target: service.ErrStatusConflict, code: response.CodeConflict, msg: "parcel state changed, please retry"},
	{target: service.ErrGatewayNotConfigured, code: response.CodeInternal, msg: "payment gateway is not configured"},
}

var deliveryActionErrorRules = []mappedHandlerError{
	{target: service.ErrNotFound, code: response.CodeNotFound, msg: "parcel not found"},
	{target: service.ErrStatusConflict, code: response.CodeConflict, msg: "parcel state changed, please retry"},
	{target: service.ErrNotAssignedRider, code: response.CodeForbidden, msg: "parcel is assigned to another rider"},
}

var riderApplyErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, msg: "invalid email address"},
	{target: service.ErrRiderApplicationExists, code: response.CodeBadRequest, msg: "an application already exists for this email"},
}

func respondParcelCreateError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(parcelPricingErrorRules, parcelCreateExtraErrorRules), response.CodeInternal, "failed to create parcel")
}

func respondParcelQuoteError(c *gin.Context, err error) {
	respondWithMappedError(c, err, parcelPricingErrorRules, response.CodeBadRequest, "failed to quote parcel")
}

func respondParcelAccessError(c *gin.Context, err error) {
	respondWithMappedError(c, err, parcelAccessErrorRules, response.CodeInternal, "failed to fetch parcel")
}

func respondParcelDeleteError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(parcelAccessErrorRules, parcelDeleteErrorRules), response.CodeInternal, "failed to delete parcel")
}

func respondCheckoutError(c *gin.Context, err error) {
	respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "failed to create checkout session")
}

func respondPaymentConfirmError(c *gin.Context, err error) {
	respondWithMappedError(c, err, paymentConfirmErrorRules, response.CodeInternal, "failed to confirm payment")
}

func respondDeliveryActionError(c *gin.Context, err error) {
	respondWithMappedError(c, err, deliveryActionErrorRules, response.CodeInternal, "failed to update delivery")
}

func respondRiderApplyError(c *gin.Context, err error) {
	respondWithMappedError(c, err, riderApplyErrorRules, response.CodeInternal, "failed to submit application")
}
