package request

import (
	"github.com/approvalflow/workflow-client/internal/request/model"
	sessionmodel "github.com/approvalflow/workflow-client/internal/session/model"
	"github.com/approvalflow/workflow-client/internal/system/error/codes"
	"github.com/approvalflow/workflow-client/internal/system/error/serviceerror"
)

// CanAct reports whether approve or reject may be offered for record
func CanAct(caps sessionmodel.Capabilities, record model.RequestRecord) bool {
	return CheckAction(caps, record) == nil
}

// CheckAction guards approve and reject. It must be evaluated when the action
// is invoked, against the latest known state of the record.
func CheckAction(caps sessionmodel.Capabilities, record model.RequestRecord) *serviceerror.ServiceError {
	if err := CheckReviewer(caps); err != nil {
		return err
	}
	if !record.IsPending() {
		err := serviceerror.CustomServiceError(serviceerror.ForbiddenError, "request is "+string(record.Status)+", only pending requests can be reviewed")
		err.Code = codes.RequestNotPending
		return err
	}
	return nil
}

// CheckReviewer reports whether caps allow reviewing any request at all
func CheckReviewer(caps sessionmodel.Capabilities) *serviceerror.ServiceError {
	if !caps.Authenticated {
		return serviceerror.CustomServiceError(serviceerror.AuthenticationLostError, "sign in to review requests")
	}
	if !caps.CanReview {
		err := serviceerror.CustomServiceError(serviceerror.ForbiddenError, "only managers can review requests")
		err.Code = codes.ReviewNotPermitted
		return err
	}
	return nil
}

// CheckSubmit guards request creation
func CheckSubmit(caps sessionmodel.Capabilities) *serviceerror.ServiceError {
	if !caps.Authenticated {
		return serviceerror.CustomServiceError(serviceerror.AuthenticationLostError, "sign in to submit requests")
	}
	if !caps.CanSubmit {
		err := serviceerror.CustomServiceError(serviceerror.ForbiddenError, "only users can submit requests")
		err.Code = codes.SubmitNotPermitted
		return err
	}
	return nil
}
