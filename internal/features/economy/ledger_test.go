package economy

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"serotonyl.ru/drum/internal/common"
	"serotonyl.ru/drum/internal/features/chambers"
	"serotonyl.ru/drum/internal/features/profiles"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCheckSufficient_Inclusive(t *testing.T) {
	ledger := NewLedger(money("10.00"))
	ch := &chambers.Chamber{
		Name:              "golang",
		MinThreadBalance:  money("5.00"),
		MinCommentBalance: money("1.00"),
	}

	tests := []struct {
		name    string
		balance string
		kind    ActionKind
		ok      bool
	}{
		{"thread exact", "5.00", ActionCreateThread, true},
		{"thread one cent short", "4.99", ActionCreateThread, false},
		{"comment", "1.00", ActionCreateComment, true},
		{"comment short", "0.99", ActionCreateComment, false},
		{"chamber short", "9.99", ActionCreateChamber, false},
		{"chamber exact", "10", ActionCreateChamber, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &profiles.Profile{Balance: money(tt.balance)}
			check := ledger.CheckSufficient(p, ch, tt.kind)
			assert.Equal(t, tt.ok, check.OK)
			assert.True(t, check.Available.Equal(p.Balance))
		})
	}
}

func TestCheckSufficient_NoDriftOnRepeatedCents(t *testing.T) {
	// 0.1 + 0.2 в float64 не равно 0.3
	balance := money("0.10").Add(money("0.20"))
	ch := &chambers.Chamber{Name: "x", MinThreadBalance: money("0.30")}
	check := NewLedger(decimal.Zero).CheckSufficient(&profiles.Profile{Balance: balance}, ch, ActionCreateThread)
	assert.True(t, check.OK)
}

func TestCheckSufficient_ThreadWithoutChamber(t *testing.T) {
	check := NewLedger(decimal.Zero).CheckSufficient(&profiles.Profile{Balance: money("100")}, nil, ActionCreateThread)
	assert.False(t, check.OK)
	assert.ErrorIs(t, check.Err, common.ErrChamberNotFound)
	assert.NotContains(t, check.Detail(), "Minimum: 0.00")
}

func TestCheckSufficient_UnknownKind(t *testing.T) {
	check := NewLedger(money("10")).CheckSufficient(&profiles.Profile{Balance: money("100")}, nil, ActionKind("create_poll"))
	assert.False(t, check.OK)
	assert.Error(t, check.Err)
	assert.Equal(t, "Balance check failed.", check.Detail())
}

func TestCheck_Detail(t *testing.T) {
	ledger := NewLedger(money("10.00"))
	ch := &chambers.Chamber{Name: "x", MinThreadBalance: money("5")}

	check := ledger.CheckSufficient(&profiles.Profile{Balance: money("3")}, ch, ActionCreateThread)
	assert.Equal(t, "Balance (3.00) too low to create a thread in 'x'. Minimum: 5.00", check.Detail())

	check = ledger.CheckSufficient(&profiles.Profile{Balance: money("5")}, nil, ActionCreateChamber)
	assert.Equal(t, "Balance (5.00) too low to create a chamber. Minimum: 10.00", check.Detail())

	check = ledger.CheckSufficient(&profiles.Profile{Balance: money("50")}, ch, ActionCreateThread)
	assert.Empty(t, check.Detail())
}
