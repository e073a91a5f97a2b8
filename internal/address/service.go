package address

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"barbershop_backend/internal/common"
	"barbershop_backend/internal/platform/database"
	"barbershop_backend/internal/shared"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserFinder is the slice of the user service the address flow needs.
type UserFinder interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*shared.User, error)
}

// Service defines address operations.
type Service interface {
	CreateForUser(ctx context.Context, userID uuid.UUID, req CreateAddressRequest) (*shared.Address, error)
	GetForUser(ctx context.Context, userID uuid.UUID) (*shared.Address, error)
}

// ServiceImplementation implements address.Service.
type ServiceImplementation struct {
	repo   Repository
	users  UserFinder
	tx     database.Transactor
	logger *zap.Logger
}

var _ Service = (*ServiceImplementation)(nil)

// NewService creates a new address service.
func NewService(repo Repository, users UserFinder, tx database.Transactor, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{
		repo:   repo,
		users:  users,
		tx:     tx,
		logger: logger,
	}
}

// CreateForUser stores the first and only address of a user.
func (s *ServiceImplementation) CreateForUser(ctx context.Context, userID uuid.UUID, req CreateAddressRequest) (*shared.Address, error) {
	numero, err := strconv.Atoi(strings.TrimSpace(req.Numero))
	if err != nil || numero < 0 {
		return nil, common.NewValidationAPIError(map[string]string{"numero": "The numero field must be a whole number."})
	}

	addr := &Address{
		UserID: userID,
		CEP:    common.FormatCEP(common.NormalizeCEP(req.CEP)),
		UF:     strings.ToUpper(strings.TrimSpace(req.UF)),
		Cidade: common.SanitizeText(req.Cidade),
		Bairro: common.SanitizeText(req.Bairro),
		Rua:    common.SanitizeText(req.Rua),
		Numero: numero,
	}
	if c := common.SanitizeText(req.Complemento); c != "" {
		addr.Complemento = &c
	}
	if addr.Cidade == "" || addr.Bairro == "" || addr.Rua == "" {
		return nil, common.NewValidationAPIError(map[string]string{"address": "cidade, bairro and rua must contain text."})
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.users.GetUserByID(ctx, userID); err != nil {
			return err
		}
		exists, err := s.repo.ExistsForUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("checking existing address: %w", err)
		}
		if exists {
			return common.ErrAddressAlreadyExists
		}
		return s.repo.Create(ctx, addr)
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound.WithDetails("User not found with this ID.")
		}
		if _, ok := common.IsAPIError(err); !ok {
			s.logger.Error("Failed to create address", zap.Error(err), zap.String("userID", userID.String()))
		}
		return nil, err
	}

	s.logger.Info("Address created", zap.String("userID", userID.String()), zap.String("addressID", addr.ID.String()))
	return ToShared(addr), nil
}

// GetForUser returns the user's address or ErrNotFound.
func (s *ServiceImplementation) GetForUser(ctx context.Context, userID uuid.UUID) (*shared.Address, error) {
	addr, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ToShared(addr), nil
}
