package repositories

import (
	stderrors "errors"

	"gorm.io/gorm"

	"github.com/mroshb/friendly/internal/models"
	"github.com/mroshb/friendly/pkg/errors"
	"github.com/mroshb/friendly/pkg/utils"
)

type PersonRepository struct {
	db *gorm.DB
}

func NewPersonRepository(db *gorm.DB) *PersonRepository {
	return &PersonRepository{db: db}
}

// CreatePerson creates a new person with a fresh public ID
func (r *PersonRepository) CreatePerson(person *models.Person) error {
	if person.PublicID == "" {
		person.PublicID = utils.GenerateRandomID(models.PublicIDLength)
	}

	result := r.db.Create(person)
	if result.Error != nil && isDuplicate(result.Error) {
		return errors.Wrap(result.Error, errors.ErrCodeAlreadyExists, "person already registered")
	}
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to create person")
	}
	return nil
}

// GetPersonByTelegramID retrieves a person by Telegram ID
func (r *PersonRepository) GetPersonByTelegramID(telegramID int64) (*models.Person, error) {
	var person models.Person
	return r.first(&person, r.db.Where("telegram_id = ?", telegramID))
}

// GetPersonByPublicID retrieves a person by public ID
func (r *PersonRepository) GetPersonByPublicID(publicID string) (*models.Person, error) {
	var person models.Person
	return r.first(&person, r.db.Where("public_id = ?", publicID))
}

// GetPersonByID retrieves a person by ID
func (r *PersonRepository) GetPersonByID(id uint) (*models.Person, error) {
	var person models.Person
	return r.first(&person, r.db.Where("id = ?", id))
}

func (r *PersonRepository) first(person *models.Person, query *gorm.DB) (*models.Person, error) {
	result := query.First(person)
	if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, errors.New(errors.ErrCodeNotFound, "person not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get person")
	}
	return person, nil
}

// FindPeopleByIDs loads people in the order of ids, skipping ids that no
// longer exist.
func (r *PersonRepository) FindPeopleByIDs(ids []uint) ([]models.Person, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var found []models.Person
	if err := r.db.Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to load people")
	}

	byID := make(map[uint]models.Person, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	people := make([]models.Person, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			people = append(people, p)
		}
	}
	return people, nil
}

// UpdateName changes a person's display name
func (r *PersonRepository) UpdateName(personID uint, name string) error {
	person, err := r.GetPersonByID(personID)
	if err != nil {
		return err
	}
	person.FullName = name
	if err := r.db.Save(person).Error; err != nil {
		if stderrors.Is(err, gorm.ErrInvalidData) {
			return errors.Wrap(err, errors.ErrCodeValidation, "invalid name")
		}
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to update person")
	}
	return nil
}
