package services

import (
	"testing"

	"github.com/sahilchouksey/learning-center-api/model"
	"github.com/stretchr/testify/assert"
)

func TestFinalSalary(t *testing.T) {
	tests := []struct {
		name                   string
		salary, bonus, penalty float64
		want                   float64
	}{
		{"base only", 3000000, 0, 0, 3000000},
		{"bonus", 3000000, 500000, 0, 3500000},
		{"penalty", 3000000, 0, 250000, 2750000},
		{"both", 3000000, 500000, 250000, 3250000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, FinalSalary(tt.salary, tt.bonus, tt.penalty), 0.001)
		})
	}
}

func TestPaymentDebt(t *testing.T) {
	p := model.StudentPayment{Amount: 500000, Discount: 50000, PaidAmount: 300000}
	view := viewOf(p)
	assert.InDelta(t, 150000, view.Debt, 0.001)

	p.PaidAmount = 600000
	assert.Zero(t, viewOf(p).Debt)
}

func TestCheckLessonTimes(t *testing.T) {
	assert.NoError(t, checkLessonTimes("09:00", "10:30"))
	assert.Error(t, checkLessonTimes("10:30", "10:30"))
	assert.Error(t, checkLessonTimes("14:00", "09:00"))
}

func TestCheckMoney(t *testing.T) {
	assert.NoError(t, checkMoney(0, 10, 20))
	assert.Error(t, checkMoney(10, -1))
}
