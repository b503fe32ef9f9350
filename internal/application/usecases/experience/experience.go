package experience

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"festmatch/internal/domain/experiences"
)

//go:generate mockgen -destination=mocks/mock_experiences_repo.go -package=mocks festmatch/internal/application/usecases/experience ExperiencesRepo
type ExperiencesRepo interface {
	Create(ctx context.Context, exp experiences.Experience) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*experiences.Experience, error)
}

// CatalogUsecase covers the read-mostly catalog surface: seeding
// experiences and the pricing/refund previews that do not touch match
// state.
type CatalogUsecase struct {
	experiencesRepo ExperiencesRepo
	now             func() time.Time
}

func NewCatalogUsecase(experiencesRepo ExperiencesRepo) *CatalogUsecase {
	return &CatalogUsecase{
		experiencesRepo: experiencesRepo,
		now:             time.Now,
	}
}

func (u *CatalogUsecase) CreateExperience(ctx context.Context, exp experiences.Experience) (*experiences.Experience, error) {
	if err := exp.Validate(); err != nil {
		return nil, err
	}

	id, err := u.experiencesRepo.Create(ctx, exp)
	if err != nil {
		return nil, err
	}
	return u.experiencesRepo.GetByID(ctx, id)
}

func (u *CatalogUsecase) GetExperience(ctx context.Context, id uuid.UUID) (*experiences.Experience, error) {
	return u.experiencesRepo.GetByID(ctx, id)
}

// Quote prices a hypothetical group without creating anything.
func (u *CatalogUsecase) Quote(ctx context.Context, experienceID uuid.UUID, participants int) (*experiences.Quote, error) {
	exp, err := u.experiencesRepo.GetByID(ctx, experienceID)
	if err != nil {
		return nil, err
	}
	if err := exp.ValidateParticipants(participants); err != nil {
		return nil, err
	}
	q := experiences.CalculateGroupPrice(exp.Tiers, exp.BasePrice, participants)
	return &q, nil
}

// RefundPreview shows what a cancellation at this moment would return
// for the given amount and start date, under the experience's policy.
func (u *CatalogUsecase) RefundPreview(ctx context.Context, experienceID uuid.UUID, amount decimal.Decimal, startDate time.Time) (*experiences.RefundBreakdown, error) {
	exp, err := u.experiencesRepo.GetByID(ctx, experienceID)
	if err != nil {
		return nil, err
	}
	b := experiences.CalculateRefund(exp.CancellationPolicy, amount, startDate, u.now())
	return &b, nil
}
