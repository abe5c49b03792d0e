package repository

import (
	"context"

	"restopos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PersonaRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Persona, error)
}

type personaRepo struct{ db *gorm.DB }

func NewPersonaRepository(db *gorm.DB) PersonaRepository { return &personaRepo{db: db} }

func (r *personaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Persona, error) {
	var p model.Persona
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	return &p, err
}
