package provision

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vidyasetu/auth-api/internal/domain"
)

type mockProfileStore struct{ mock.Mock }

func (m *mockProfileStore) InsertProfileIfAbsent(ctx context.Context, p *domain.Profile) error {
	return m.Called(ctx, p).Error(0)
}

var identity = domain.VerifiedIdentity{IdentityID: "id-1", Phone: "9876543210"}

func panchayatAttrs() map[string]string {
	return map[string]string{
		"panchayat_name": "Rampur GP",
		"panchayat_id":   "GP-1043",
		"district":       "Varanasi",
		"state":          "Uttar Pradesh",
		"contact_person": "S. Kumar",
	}
}

func TestCreateIfAbsent_InsertsOnce(t *testing.T) {
	store := &mockProfileStore{}
	store.On("InsertProfileIfAbsent", mock.Anything, mock.MatchedBy(func(p *domain.Profile) bool {
		return p.IdentityID == "id-1" && p.Role == domain.RoleGramPanchayat &&
			p.Attributes["panchayat_name"] == "Rampur GP"
	})).Return(nil).Once()

	err := New(store).CreateIfAbsent(context.Background(), identity, domain.RoleGramPanchayat, panchayatAttrs())

	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestCreateIfAbsent_ExistingProfileIsSuccess(t *testing.T) {
	store := &mockProfileStore{}
	store.On("InsertProfileIfAbsent", mock.Anything, mock.Anything).Return(domain.ErrConflict)

	err := New(store).CreateIfAbsent(context.Background(), identity, domain.RoleGramPanchayat, panchayatAttrs())

	assert.NoError(t, err)
}

func TestCreateIfAbsent_SecondCallWithDifferentAttributesDoesNotOverwrite(t *testing.T) {
	store := &mockProfileStore{}
	store.On("InsertProfileIfAbsent", mock.Anything, mock.Anything).Return(nil).Once()
	store.On("InsertProfileIfAbsent", mock.Anything, mock.Anything).Return(domain.ErrConflict)

	p := New(store)
	require.NoError(t, p.CreateIfAbsent(context.Background(), identity, domain.RoleGramPanchayat, panchayatAttrs()))

	changed := panchayatAttrs()
	changed["district"] = "Lucknow"
	require.NoError(t, p.CreateIfAbsent(context.Background(), identity, domain.RoleGramPanchayat, changed))

	// Exactly one real insert; the second call hit the conditional-put guard.
	store.AssertNumberOfCalls(t, "InsertProfileIfAbsent", 2)
}

func TestCreateIfAbsent_StoreFailureIsProvisionError(t *testing.T) {
	store := &mockProfileStore{}
	store.On("InsertProfileIfAbsent", mock.Anything, mock.Anything).Return(errors.New("dynamo down"))

	err := New(store).CreateIfAbsent(context.Background(), identity, domain.RoleGramPanchayat, panchayatAttrs())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrProvision))
}

func TestValidateAttributes_MissingRequired(t *testing.T) {
	attrs := panchayatAttrs()
	delete(attrs, "district")

	err := New(nil).ValidateAttributes(domain.RoleGramPanchayat, attrs)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestValidateAttributes_StudentAadhaarFormat(t *testing.T) {
	p := New(nil)

	err := p.ValidateAttributes(domain.RoleStudent, map[string]string{
		"full_name": "Asha Devi",
		"aadhaar":   "12345",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))

	err = p.ValidateAttributes(domain.RoleStudent, map[string]string{
		"full_name": "Asha Devi",
		"aadhaar":   "123456789012",
	})
	assert.NoError(t, err)
}

func TestValidateAttributes_OptionalEmailFormat(t *testing.T) {
	attrs := panchayatAttrs()
	attrs["email"] = "not-an-email"

	err := New(nil).ValidateAttributes(domain.RoleGramPanchayat, attrs)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestValidateAttributes_AdminDoesNotSelfRegister(t *testing.T) {
	err := New(nil).ValidateAttributes(domain.RoleAdmin, map[string]string{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}
