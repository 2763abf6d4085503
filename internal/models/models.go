package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ExpenseType string

type AnimalStatus string

type TaskStatus string

type TaskPriority string

type LogLevel string

const (
	ExpenseTypeExpense ExpenseType = "Expense"
	ExpenseTypeIncome  ExpenseType = "Income"

	AnimalStatusActive      AnimalStatus = "active"
	AnimalStatusSold        AnimalStatus = "sold"
	AnimalStatusDead        AnimalStatus = "dead"
	AnimalStatusReadyToSell AnimalStatus = "ready_to_sell"

	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"

	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"

	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// DefaultSubCategory используется, когда категория создается без подкатегории.
const DefaultSubCategory = "General"

// DateLayout задает формат дат на границе API и в хранилище.
const DateLayout = "2006-01-02"

type Category struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	SubCategories []string  `json:"subCategories"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Expense соответствует строке таблицы expenses. Категория хранится только как внешний ключ.
type Expense struct {
	ID          uuid.UUID       `json:"id"`
	Date        string          `json:"date"`
	Type        ExpenseType     `json:"type"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	PaidBy      string          `json:"paidBy"`
	CategoryID  uuid.UUID       `json:"categoryId"`
	SubCategory string          `json:"subCategory"`
	Source      string          `json:"source"`
	Notes       string          `json:"notes"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ExpenseWithCategory дополняет расход именем категории из JOIN.
type ExpenseWithCategory struct {
	Expense
	Category string `json:"category"`
}

type ExpenseFilter struct {
	From       string
	To         string
	Type       ExpenseType
	CategoryID uuid.UUID
	Category   string
}

type Animal struct {
	ID              uuid.UUID        `json:"id"`
	TagNumber       string           `json:"tagNumber"`
	Name            string           `json:"name"`
	Type            string           `json:"type"`
	Breed           string           `json:"breed"`
	Gender          string           `json:"gender"`
	DateOfBirth     *string          `json:"dateOfBirth,omitempty"`
	Status          AnimalStatus     `json:"status"`
	CurrentWeight   *float64         `json:"currentWeight,omitempty"`
	PurchaseDate    *string          `json:"purchaseDate,omitempty"`
	PurchasePrice   *decimal.Decimal `json:"purchasePrice,omitempty"`
	SaleDate        *string          `json:"saleDate,omitempty"`
	SalePrice       *decimal.Decimal `json:"salePrice,omitempty"`
	IsInsured       bool             `json:"isInsured"`
	InsuranceAmount *decimal.Decimal `json:"insuranceAmount,omitempty"`
	Notes           string           `json:"notes"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

type AnimalFilter struct {
	Status AnimalStatus
	Type   string
}

type WeightRecord struct {
	ID         uuid.UUID `json:"id"`
	AnimalID   uuid.UUID `json:"animalId"`
	Weight     float64   `json:"weight"`
	Date       string    `json:"date"`
	Notes      string    `json:"notes"`
	RecordedBy string    `json:"recordedBy"`
	CreatedAt  time.Time `json:"createdAt"`
}

type BreedingRecord struct {
	ID              uuid.UUID  `json:"id"`
	AnimalID        uuid.UUID  `json:"animalId"`
	MateID          *uuid.UUID `json:"mateId,omitempty"`
	BreedingDate    string     `json:"breedingDate"`
	ExpectedDueDate *string    `json:"expectedDueDate,omitempty"`
	ActualBirthDate *string    `json:"actualBirthDate,omitempty"`
	OffspringCount  int        `json:"offspringCount"`
	Status          string     `json:"status"`
	Notes           string     `json:"notes"`
	CreatedAt       time.Time  `json:"createdAt"`
}

type VaccinationRecord struct {
	ID             uuid.UUID `json:"id"`
	AnimalID       uuid.UUID `json:"animalId"`
	VaccineName    string    `json:"vaccineName"`
	DateGiven      string    `json:"dateGiven"`
	NextDueDate    *string   `json:"nextDueDate,omitempty"`
	AdministeredBy string    `json:"administeredBy"`
	Notes          string    `json:"notes"`
	CreatedAt      time.Time `json:"createdAt"`
}

type HealthRecord struct {
	ID           uuid.UUID        `json:"id"`
	AnimalID     uuid.UUID        `json:"animalId"`
	Date         string           `json:"date"`
	Condition    string           `json:"condition"`
	Treatment    string           `json:"treatment"`
	Veterinarian string           `json:"veterinarian"`
	Cost         *decimal.Decimal `json:"cost,omitempty"`
	Notes        string           `json:"notes"`
	CreatedAt    time.Time        `json:"createdAt"`
}

type Task struct {
	ID          uuid.UUID    `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	DueDate     *string      `json:"dueDate,omitempty"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	AssignedTo  string       `json:"assignedTo"`
	AnimalID    *uuid.UUID   `json:"animalId,omitempty"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

type TaskFilter struct {
	Status   TaskStatus
	Priority TaskPriority
}

type ErrorLog struct {
	ID        uuid.UUID      `json:"id"`
	Level     LogLevel       `json:"level"`
	Message   string         `json:"message"`
	Source    string         `json:"source"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

type ErrorLogFilter struct {
	Level  LogLevel
	Source string
	Limit  int
}

// AnimalSummary содержит производную сводку по стаду и не сохраняется.
type AnimalSummary struct {
	TotalAnimals    int             `json:"totalAnimals"`
	ByType          map[string]int  `json:"byType"`
	ByGender        map[string]int  `json:"byGender"`
	ByStatus        map[string]int  `json:"byStatus"`
	Active          int             `json:"active"`
	Sold            int             `json:"sold"`
	Dead            int             `json:"dead"`
	ReadyToSell     int             `json:"readyToSell"`
	AverageWeight   float64         `json:"averageWeight"`
	TotalInvestment decimal.Decimal `json:"totalInvestment"`
	TotalRevenue    decimal.Decimal `json:"totalRevenue"`
	ProfitLoss      decimal.Decimal `json:"profitLoss"`
}

type CategoryTotal struct {
	Category string          `json:"category"`
	Type     ExpenseType     `json:"type"`
	Total    decimal.Decimal `json:"total"`
}

type ExpenseTotals struct {
	TotalIncome   decimal.Decimal `json:"totalIncome"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	Net           decimal.Decimal `json:"net"`
	ByCategory    []CategoryTotal `json:"byCategory"`
}

// ValidAnimalStatus сообщает, входит ли статус в допустимый набор.
func ValidAnimalStatus(status AnimalStatus) bool {
	switch status {
	case AnimalStatusActive, AnimalStatusSold, AnimalStatusDead, AnimalStatusReadyToSell:
		return true
	}
	return false
}

// ValidLogLevel сообщает, поддерживается ли уровень логирования.
func ValidLogLevel(level LogLevel) bool {
	switch level {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true
	}
	return false
}
