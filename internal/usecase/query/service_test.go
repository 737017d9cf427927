package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/ledger-backend/internal/adapter/repository/memory"
	"github.com/simaogato/ledger-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCustomerRepository is a mock implementation of CustomerRepository for testing
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, id domain.CustomerID) (*domain.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Exists(ctx context.Context, id domain.CustomerID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockCustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

type queryFixture struct {
	store      *memory.Store
	service    *QueryService
	alice, bob *domain.Customer
	carol      *domain.Customer
	a1, a2, b1 *domain.BankAccount
}

// newQueryFixture records A1->B1 30 and then A1->A2 70.
// Carol exists but owns nothing.
func newQueryFixture(t *testing.T) *queryFixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	f := &queryFixture{
		store:   store,
		service: NewQueryService(store.Customers(), store.Accounts(), store.Transactions()),
		alice:   &domain.Customer{ID: domain.NewCustomerID(), Name: "Alice"},
		bob:     &domain.Customer{ID: domain.NewCustomerID(), Name: "Bob"},
		carol:   &domain.Customer{ID: domain.NewCustomerID(), Name: "Carol"},
	}
	for _, c := range []*domain.Customer{f.alice, f.bob, f.carol} {
		require.NoError(t, store.Customers().Create(ctx, c))
	}

	base := time.Now()
	open := func(owner *domain.Customer, balance int64, at time.Time) *domain.BankAccount {
		a, err := domain.NewBankAccount(owner.ID, decimal.NewFromInt(balance), at)
		require.NoError(t, err)
		require.NoError(t, store.Accounts().Create(ctx, a))
		return a
	}
	f.a1 = open(f.alice, 0, base)
	f.a2 = open(f.alice, 70, base.Add(time.Second))
	f.b1 = open(f.bob, 80, base)

	record := func(from, to *domain.BankAccount, sender, receiver *domain.Customer, amount int64, at time.Time) {
		tx := domain.NewTransaction(from, to, sender, receiver, decimal.NewFromInt(amount), at)
		require.NoError(t, store.Do(ctx, func(ctx context.Context, u domain.Tx) error {
			return u.AppendTransaction(ctx, tx)
		}))
	}
	record(f.a1, f.b1, f.alice, f.bob, 30, base.Add(time.Minute))
	record(f.a1, f.a2, f.alice, f.alice, 70, base.Add(2*time.Minute))
	return f
}

func TestGetBalances(t *testing.T) {
	ctx := context.Background()
	f := newQueryFixture(t)

	balances, err := f.service.GetBalances(ctx, f.alice.ID)
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.Equal(t, f.a1.ID, balances[0].AccountID)
	assert.True(t, balances[0].Balance.IsZero())
	assert.Equal(t, f.a2.ID, balances[1].AccountID)
	assert.True(t, decimal.NewFromInt(70).Equal(balances[1].Balance))

	// Reads are idempotent
	again, err := f.service.GetBalances(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, balances, again)
}

func TestGetBalances_KnownCustomerWithoutAccounts(t *testing.T) {
	f := newQueryFixture(t)

	balances, err := f.service.GetBalances(context.Background(), f.carol.ID)

	require.NoError(t, err)
	assert.NotNil(t, balances)
	assert.Empty(t, balances)
}

func TestGetHistory(t *testing.T) {
	ctx := context.Background()
	f := newQueryFixture(t)

	history, err := f.service.GetHistory(ctx, f.alice.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "FROM Alice 30 TO Bob", history[0].Description)
	assert.Equal(t, f.a1.ID, history[0].FromAccountID)
	assert.Equal(t, f.b1.ID, history[0].ToAccountID)
	assert.True(t, decimal.NewFromInt(30).Equal(history[0].Amount))
	assert.Equal(t, "FROM Alice 70 TO Alice", history[1].Description)
	assert.True(t, history[0].CreatedAt.Before(history[1].CreatedAt))

	bobHistory, err := f.service.GetHistory(ctx, f.bob.ID)
	require.NoError(t, err)
	require.Len(t, bobHistory, 1)
	assert.Equal(t, history[0].ID, bobHistory[0].ID)

	carolHistory, err := f.service.GetHistory(ctx, f.carol.ID)
	require.NoError(t, err)
	assert.NotNil(t, carolHistory)
	assert.Empty(t, carolHistory)
}

func TestQueries_UnknownCustomer(t *testing.T) {
	ctx := context.Background()
	f := newQueryFixture(t)
	stranger := domain.NewCustomerID()

	_, err := f.service.GetBalances(ctx, stranger)
	assert.ErrorIs(t, err, domain.ErrUnknownCustomer)

	_, err = f.service.GetHistory(ctx, stranger)
	assert.ErrorIs(t, err, domain.ErrUnknownCustomer)
}

func TestQueries_RepositoryFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	mockCustomerRepo := new(MockCustomerRepository)
	service := NewQueryService(mockCustomerRepo, store.Accounts(), store.Transactions())
	customerID := domain.NewCustomerID()
	boom := errors.New("db down")
	mockCustomerRepo.On("Exists", ctx, customerID).Return(false, boom)

	_, err := service.GetBalances(ctx, customerID)
	assert.ErrorIs(t, err, boom)

	_, err = service.GetHistory(ctx, customerID)
	assert.ErrorIs(t, err, boom)
	mockCustomerRepo.AssertNumberOfCalls(t, "Exists", 2)
}
