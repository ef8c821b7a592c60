package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	patientdomain "github.com/praxisuite/therabill/internal/patient/domain"
	"github.com/praxisuite/therabill/pkg/repository"
	"gorm.io/gorm"
)

type patientRepository struct {
	store repository.Repository[patientdomain.Patient]
}

func NewRepository(db *gorm.DB) patientdomain.Repository {
	return &patientRepository{store: repository.ProvideStore[patientdomain.Patient](db)}
}

func (r *patientRepository) FindByID(ctx context.Context, id snowflake.ID) (*patientdomain.Patient, error) {
	return r.store.FindOne(ctx, &patientdomain.Patient{ID: id})
}
