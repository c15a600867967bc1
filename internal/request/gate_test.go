package request

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/approvalflow/workflow-client/internal/request/model"
	sessionmodel "github.com/approvalflow/workflow-client/internal/session/model"
	"github.com/approvalflow/workflow-client/internal/system/error/codes"
	"github.com/approvalflow/workflow-client/internal/system/error/serviceerror"
)

func TestCheckAction(t *testing.T) {
	managerCaps := sessionmodel.CapabilitiesOf(manager())
	userCaps := sessionmodel.CapabilitiesOf(user("u1"))

	pending := model.RequestRecord{ID: "1", Status: model.StatusPending}
	approved := model.RequestRecord{ID: "2", Status: model.StatusApproved}

	assert.Nil(t, CheckAction(managerCaps, pending))
	assert.True(t, CanAct(managerCaps, pending))

	err := CheckAction(managerCaps, approved)
	if assert.NotNil(t, err) {
		assert.True(t, err.Is(serviceerror.ForbiddenError))
		assert.Equal(t, codes.RequestNotPending, err.Code)
	}

	err = CheckAction(userCaps, pending)
	if assert.NotNil(t, err) {
		assert.Equal(t, codes.ReviewNotPermitted, err.Code)
	}

	err = CheckAction(sessionmodel.Capabilities{}, pending)
	if assert.NotNil(t, err) {
		assert.True(t, err.Is(serviceerror.AuthenticationLostError))
	}
}

func TestCheckReviewer(t *testing.T) {
	assert.Nil(t, CheckReviewer(sessionmodel.CapabilitiesOf(manager())))

	err := CheckReviewer(sessionmodel.CapabilitiesOf(user("u1")))
	if assert.NotNil(t, err) {
		assert.True(t, err.Is(serviceerror.ForbiddenError))
		assert.Equal(t, codes.ReviewNotPermitted, err.Code)
	}

	err = CheckReviewer(sessionmodel.Capabilities{})
	if assert.NotNil(t, err) {
		assert.True(t, err.Is(serviceerror.AuthenticationLostError))
	}
}

func TestCheckSubmit(t *testing.T) {
	assert.Nil(t, CheckSubmit(sessionmodel.CapabilitiesOf(user("u1"))))

	err := CheckSubmit(sessionmodel.CapabilitiesOf(manager()))
	if assert.NotNil(t, err) {
		assert.Equal(t, codes.SubmitNotPermitted, err.Code)
	}

	err = CheckSubmit(sessionmodel.Capabilities{})
	if assert.NotNil(t, err) {
		assert.True(t, err.Is(serviceerror.AuthenticationLostError))
	}
}
