package profile

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/oggyb/fittrack/internal/app"
	"github.com/oggyb/fittrack/internal/auth"
	"github.com/oggyb/fittrack/internal/db"
	"github.com/oggyb/fittrack/internal/logger"
	"github.com/oggyb/fittrack/internal/nutrition"
	"github.com/oggyb/fittrack/internal/outcome"
	"github.com/oggyb/fittrack/internal/repository"
	"github.com/oggyb/fittrack/internal/validation"
)

// Defaults for fields a client leaves out.
const (
	DefaultMealFrequency  = 3
	DefaultCookingSkill   = 3
	DefaultMaxPrepMinutes = 45
)

type Service struct {
	appCtx      *app.AppContext
	profileRepo *repository.ProfileRepository
}

func NewProfileService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:      appCtx,
		profileRepo: repository.NewProfileRepository(appCtx.DB),
	}
}

// ProfileRequest replaces the whole profile. Zero numeric fields and a nil
// snack preference take the defaults.
type ProfileRequest struct {
	Gender              string   `json:"gender" validate:"required"`
	FoodPreference      string   `json:"food_preference_type"`
	MealFrequency       int      `json:"preferred_meal_frequency" validate:"gte=0,lte=8"`
	SnackPreference     *bool    `json:"snack_preference,omitempty"`
	CookingSkill        int      `json:"cooking_skill_level" validate:"gte=0,lte=5"`
	MaxPrepMinutes      int      `json:"max_prep_time_minutes" validate:"gte=0,lte=600"`
	AgeYears            int      `json:"age_years" validate:"gte=0,lte=120"`
	HeightCm            float64  `json:"height_cm" validate:"gte=0,lte=300"`
	Allergies           []string `json:"allergies" validate:"dive,max=100"`
	DietaryRestrictions []string `json:"dietary_restrictions" validate:"dive,max=100"`
	DislikedFoods       []string `json:"disliked_foods" validate:"dive,max=100"`
	PreferredCuisines   []string `json:"preferred_cuisines" validate:"dive,max=100"`
}

type ProfileView struct {
	Gender              nutrition.Gender         `json:"gender"`
	FoodPreference      nutrition.FoodPreference `json:"food_preference_type"`
	MealFrequency       int                      `json:"preferred_meal_frequency"`
	SnackPreference     bool                     `json:"snack_preference"`
	CookingSkill        int                      `json:"cooking_skill_level"`
	MaxPrepMinutes      int                      `json:"max_prep_time_minutes"`
	AgeYears            int                      `json:"age_years"`
	HeightCm            float64                  `json:"height_cm"`
	Allergies           []string                 `json:"allergies"`
	DietaryRestrictions []string                 `json:"dietary_restrictions"`
	DislikedFoods       []string                 `json:"disliked_foods"`
	PreferredCuisines   []string                 `json:"preferred_cuisines"`
}

type ProfileResponse struct {
	outcome.Result
	Profile *ProfileView `json:"profile,omitempty"`
}

type Empty struct{}

// ToView decodes the stored list columns.
func ToView(p *db.UserProfile) *ProfileView {
	return &ProfileView{
		Gender:              p.Gender,
		FoodPreference:      p.FoodPreference,
		MealFrequency:       p.MealFrequency,
		SnackPreference:     p.SnackPreference,
		CookingSkill:        p.CookingSkill,
		MaxPrepMinutes:      p.MaxPrepMinutes,
		AgeYears:            p.AgeYears,
		HeightCm:            p.HeightCm,
		Allergies:           db.DecodeList(p.Allergies),
		DietaryRestrictions: db.DecodeList(p.DietaryRestrictions),
		DislikedFoods:       db.DecodeList(p.DislikedFoods),
		PreferredCuisines:   db.DecodeList(p.PreferredCuisines),
	}
}

func (s *Service) UpsertProfile(ctx context.Context, req *ProfileRequest) (*ProfileResponse, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	gender, err := nutrition.ParseGender(req.Gender)
	if err != nil {
		return nil, err
	}
	pref := nutrition.Omnivore
	if req.FoodPreference != "" {
		if pref, err = nutrition.ParseFoodPreference(req.FoodPreference); err != nil {
			return nil, err
		}
	}

	p := &db.UserProfile{
		UserID:              userID,
		Gender:              gender,
		FoodPreference:      pref,
		MealFrequency:       orDefault(req.MealFrequency, DefaultMealFrequency),
		SnackPreference:     req.SnackPreference == nil || *req.SnackPreference,
		CookingSkill:        orDefault(req.CookingSkill, DefaultCookingSkill),
		MaxPrepMinutes:      orDefault(req.MaxPrepMinutes, DefaultMaxPrepMinutes),
		AgeYears:            req.AgeYears,
		HeightCm:            req.HeightCm,
		Allergies:           db.EncodeList(req.Allergies),
		DietaryRestrictions: db.EncodeList(req.DietaryRestrictions),
		DislikedFoods:       db.EncodeList(req.DislikedFoods),
		PreferredCuisines:   db.EncodeList(req.PreferredCuisines),
	}
	if err := s.profileRepo.Upsert(ctx, p); err != nil {
		logger.FromContext(ctx, s.appCtx.Logger).Error("profile upsert failed", "err", err)
		return nil, err
	}

	stored, err := s.profileRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ProfileResponse{Result: outcome.OK("profile saved"), Profile: ToView(stored)}, nil
}

func (s *Service) GetProfile(ctx context.Context, _ *Empty) (*ProfileResponse, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.profileRepo.Get(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &ProfileResponse{Result: outcome.NotFoundf("profile not set")}, nil
	}
	if err != nil {
		return nil, err
	}
	return &ProfileResponse{Result: outcome.OK(""), Profile: ToView(p)}, nil
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
