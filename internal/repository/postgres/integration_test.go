//go:build integration

package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"

	"invoice-system/internal/domain/invoice"
	"invoice-system/internal/domain/user"
	"invoice-system/internal/platform/database"
)

type RepositoryIntegrationSuite struct {
	suite.Suite
	ctx      context.Context
	pgc      *tcpostgres.PostgresContainer
	db       *sqlx.DB
	users    *UserRepo
	invoices *InvoiceRepo
	stats    *StatsRepo
}

func (s *RepositoryIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	pgc, err := tcpostgres.Run(s.ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("invoice_test"),
		tcpostgres.WithUsername("invoice"),
		tcpostgres.WithPassword("invoice"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.pgc = pgc

	dsn, err := pgc.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.db, err = database.NewPostgres(s.ctx, dsn, zaptest.NewLogger(s.T()))
	s.Require().NoError(err)
	s.Require().NoError(database.Migrate(s.ctx, s.db.DB))

	s.users = NewUserRepo(s.db)
	s.invoices = NewInvoiceRepo(s.db)
	s.stats = NewStatsRepo(s.db)
}

func (s *RepositoryIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.pgc != nil {
		s.Require().NoError(s.pgc.Terminate(s.ctx))
	}
}

func (s *RepositoryIntegrationSuite) SetupTest() {
	_, err := s.db.ExecContext(s.ctx, `TRUNCATE invoices, users RESTART IDENTITY CASCADE`)
	s.Require().NoError(err)
}

func (s *RepositoryIntegrationSuite) newUser(email string) *user.User {
	u := &user.User{Name: email, Email: email, PasswordHash: "hash", Role: user.RoleUser, Status: user.StatusActive}
	s.Require().NoError(s.users.Create(s.ctx, u))
	return u
}

func (s *RepositoryIntegrationSuite) newInvoice(owner int64, serial, status, amount string) *invoice.Invoice {
	inv := &invoice.Invoice{
		SerialNumber:  serial,
		DeviceName:    "Device " + serial,
		CustomerName:  "Customer " + serial,
		InvoiceDate:   invoice.NewDate(2026, 1, 15),
		Amount:        decimal.RequireFromString(amount),
		PaymentStatus: status,
		CreatedBy:     owner,
	}
	s.Require().NoError(s.invoices.Create(s.ctx, inv))
	return inv
}

func (s *RepositoryIntegrationSuite) TestDuplicateEmail() {
	s.newUser("a@example.com")
	err := s.users.Create(s.ctx, &user.User{Name: "x", Email: "a@example.com", PasswordHash: "h", Role: "user", Status: "active"})
	s.ErrorIs(err, user.ErrEmailTaken)
}

func (s *RepositoryIntegrationSuite) TestOwnerIsolationAndGlobalSerial() {
	a := s.newUser("a@example.com")
	b := s.newUser("b@example.com")
	inv := s.newInvoice(a.ID, "SN-1", "pending", "10")

	_, err := s.invoices.Get(s.ctx, b.ID, inv.ID)
	s.ErrorIs(err, invoice.ErrNotFound)
	_, err = s.invoices.Update(s.ctx, b.ID, inv.ID, invoice.Patch{})
	s.ErrorIs(err, invoice.ErrNotFound)
	s.ErrorIs(s.invoices.Delete(s.ctx, b.ID, inv.ID), invoice.ErrNotFound)

	list, err := s.invoices.List(s.ctx, b.ID, invoice.Filter{})
	s.Require().NoError(err)
	s.Empty(list)

	err = s.invoices.Create(s.ctx, &invoice.Invoice{
		SerialNumber: "SN-1", DeviceName: "d", CustomerName: "c",
		InvoiceDate: invoice.NewDate(2026, 1, 1), Amount: decimal.NewFromInt(1),
		PaymentStatus: "pending", CreatedBy: b.ID,
	})
	s.ErrorIs(err, invoice.ErrDuplicateSerial)
}

func (s *RepositoryIntegrationSuite) TestEmptyUpdateOnlyTouchesUpdatedAt() {
	a := s.newUser("a@example.com")
	inv := s.newInvoice(a.ID, "SN-1", "pending", "10.25")
	s.Nil(inv.UpdatedAt)

	got, err := s.invoices.Update(s.ctx, a.ID, inv.ID, invoice.Patch{})
	s.Require().NoError(err)
	s.Require().NotNil(got.UpdatedAt)
	s.Equal(inv.DeviceName, got.DeviceName)
	s.True(inv.Amount.Equal(got.Amount))
	s.Equal(inv.InvoiceDate.String(), got.InvoiceDate.String())
}

func (s *RepositoryIntegrationSuite) TestSearchOrderingAndStats() {
	a := s.newUser("a@example.com")
	s.newInvoice(a.ID, "SN-1", "paid", "100")
	s.newInvoice(a.ID, "SN-2", "paid", "50")
	s.newInvoice(a.ID, "ABC-3", "pending", "30")

	list, err := s.invoices.List(s.ctx, a.ID, invoice.Filter{})
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal("ABC-3", list[0].SerialNumber)
	s.Equal("SN-1", list[2].SerialNumber)

	list, err = s.invoices.List(s.ctx, a.ID, invoice.Filter{Search: "abc"})
	s.Require().NoError(err)
	s.Require().Len(list, 1)

	list, err = s.invoices.List(s.ctx, a.ID, invoice.Filter{Status: "paid"})
	s.Require().NoError(err)
	s.Len(list, 2)

	st, err := s.stats.Aggregate(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(int64(3), st.TotalInvoices)
	s.Equal(int64(1), st.PendingInvoices)
	s.Equal(int64(2), st.PaidInvoices)
	s.True(decimal.NewFromInt(150).Equal(st.TotalRevenue))
	s.True(decimal.NewFromInt(30).Equal(st.PendingRevenue))
}

func TestRepositoryIntegration(t *testing.T) {
	if os.Getenv("DOCKER_HOST") == "" {
		t.Skip("Docker is not available, skipping integration test.")
	}
	suite.Run(t, new(RepositoryIntegrationSuite))
}
