// Package metrics объявляет счетчики Prometheus сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "farm"

// Результаты приема записи о расходе.
const (
	ResultOK      = "ok"
	ResultInvalid = "invalid"
	ResultFailed  = "failed"
)

// ExpensesIngested считает принятые записи по результату.
var ExpensesIngested = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "expenses",
	Name:      "ingested_total",
	Help:      "Expense records processed by ingestion, by result.",
}, []string{"result"})

// DateFallbacks считает даты, замененные текущей.
var DateFallbacks = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "expenses",
	Name:      "date_fallbacks_total",
	Help:      "Expense dates that could not be parsed and were replaced with the current date.",
})

// CategoriesCreated считает автоматически созданные категории.
var CategoriesCreated = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "categories",
	Name:      "created_total",
	Help:      "Categories created implicitly by expense ingestion.",
})

// CategoryConflicts считает гонки при создании категорий.
var CategoryConflicts = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "categories",
	Name:      "create_conflicts_total",
	Help:      "Category creations that lost a race and re-read the existing row.",
})

// ErrorLogFallbacks считает записи журнала, ушедшие в консоль.
var ErrorLogFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "error_log",
	Name:      "fallbacks_total",
	Help:      "Error log entries written to the console instead of the store, by reason.",
}, []string{"reason"})
