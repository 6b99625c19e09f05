package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPower_Defaults(t *testing.T) {
	p := NewPower()

	assert.Equal(t, 3, p.Capacity())
	assert.Equal(t, 3, p.Used())
	assert.Equal(t, 0, p.Unused())
	assert.Equal(t, 1, p.Get(SystemEngines), "innate engines")
	assert.Equal(t, 0, p.Current(SystemEngines))
	assert.False(t, p.Active())
}

func TestPower_Schedule(t *testing.T) {
	tests := []struct {
		name       string
		unschedule []string
		schedule   []string
		wantErr    error
	}{
		{"no spare capacity", nil, []string{SystemEngines}, ErrOverCapacity},
		{"freed capacity", []string{SystemWeapons}, []string{SystemEngines}, nil},
		{"over max", []string{SystemWeapons, SystemScanners}, []string{SystemEngines, SystemEngines}, ErrOverMax},
		{"unknown system", []string{SystemWeapons}, []string{"warp"}, ErrUnknownSystem},
		{"second comms point", []string{SystemWeapons}, []string{SystemComms}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPower()
			require.NoError(t, p.Unschedule(tt.unschedule...))
			before := p.ScheduledUse()

			err := p.Schedule(tt.schedule...)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, before+len(tt.schedule), p.ScheduledUse())
		})
	}
}

func TestPower_ScheduleErrorCategories(t *testing.T) {
	p := NewPower()
	assert.ErrorIs(t, p.Schedule(SystemEngines), ErrPrecondition)
	assert.ErrorIs(t, p.Schedule("warp"), ErrPrecondition, "capacity is checked first")

	require.NoError(t, p.Unschedule(SystemWeapons))
	assert.ErrorIs(t, p.Schedule("warp"), ErrInvalidCommand)
}

func TestPower_ScheduleIsAtomic(t *testing.T) {
	p := NewPower()
	require.NoError(t, p.Unschedule(SystemWeapons, SystemScanners))

	err := p.Schedule(SystemEngines, "warp")
	require.ErrorIs(t, err, ErrUnknownSystem)
	assert.Equal(t, 0, p.Scheduled(SystemEngines))

	err = p.Unschedule(SystemComms, SystemCrane)
	require.ErrorIs(t, err, ErrUnderZero)
	assert.Equal(t, 1, p.Scheduled(SystemComms))
}

func TestPower_ApplySchedule(t *testing.T) {
	p := NewPower()

	msg, changed := p.ApplySchedule()
	assert.False(t, changed)
	assert.Equal(t, "No change to power.", msg)

	require.NoError(t, p.Unschedule(SystemWeapons))
	require.NoError(t, p.Schedule(SystemEngines))
	msg, changed = p.ApplySchedule()
	assert.True(t, changed)
	assert.Contains(t, msg, "Power to **engines** increased by 1.")
	assert.Contains(t, msg, "Power to **weapons** decreased by 1.")
	assert.Equal(t, 2, p.Get(SystemEngines))
}

func TestPower_ScheduleNeverExceedsCapacity(t *testing.T) {
	rng := testRand()
	systems := append(NewPower().Systems(), "warp")
	p := NewPower()

	for range 500 {
		batch := make([]string, 1+rng.IntN(3))
		for i := range batch {
			batch[i] = systems[rng.IntN(len(systems))]
		}
		if rng.IntN(2) == 0 {
			_ = p.Schedule(batch...)
		} else {
			_ = p.Unschedule(batch...)
		}
		require.LessOrEqual(t, p.ScheduledUse(), p.Capacity())
		for _, s := range p.Systems() {
			require.GreaterOrEqual(t, p.Scheduled(s), 0)
			require.LessOrEqual(t, p.Scheduled(s), p.Max(s))
		}
	}
}

func TestPower_DamageUsesReservesFirst(t *testing.T) {
	p := NewPower()
	require.NoError(t, p.Unschedule(SystemWeapons))
	p.ApplySchedule()

	p.Damage(1)
	assert.Equal(t, 1, p.PendingDamage())
	msg := p.ResolveDamage(testRand())

	assert.Equal(t, "Damage taken to reserves!", msg)
	assert.Equal(t, 2, p.Capacity())
	assert.Equal(t, 2, p.Used())
	assert.Zero(t, p.PendingDamage())
}

func TestPower_DamageStripsPoweredSystem(t *testing.T) {
	p := NewPower()
	p.Damage(1)
	msg := p.ResolveDamage(testRand())

	assert.Equal(t, 2, p.Capacity())
	assert.Equal(t, 2, p.Used())
	assert.LessOrEqual(t, p.ScheduledUse(), p.Capacity())
	assert.NotContains(t, msg, "reserves")
}

func TestPower_LethalDamage(t *testing.T) {
	p := NewPower()
	p.Activate(true)
	p.Damage(2)
	p.Damage(3)

	msg := p.ResolveDamage(testRand())

	assert.Equal(t, 0, p.Capacity())
	assert.True(t, p.Destroyed())
	assert.False(t, p.Active())
	assert.Equal(t, 1, strings.Count(msg, DestroyedNotice))
	assert.Equal(t, 3, strings.Count(msg, "Damage taken"), "excess damage is absorbed")
	assert.Zero(t, p.Used())
}

func TestPower_HealAndModify(t *testing.T) {
	p := NewPower()
	p.Damage(2)
	p.ResolveDamage(testRand())
	require.Equal(t, 1, p.Capacity())

	assert.Equal(t, "Healed back up to 3 power!", p.Heal(5))

	require.NoError(t, p.ModifyReactor(2))
	assert.Equal(t, 5, p.MaxCapacity())
	assert.Equal(t, 5, p.Capacity())

	require.NoError(t, p.ModifyReactor(-1))
	assert.Equal(t, 4, p.MaxCapacity())
	assert.Equal(t, 1, p.PendingDamage())
	assert.ErrorIs(t, p.ModifyReactor(-10), ErrBelowZero)

	require.NoError(t, p.ModifySystem(SystemComms, -2))
	assert.Zero(t, p.Current(SystemComms))
	assert.ErrorIs(t, p.ModifySystem(SystemComms, -1), ErrBelowZero)

	require.NoError(t, p.ModifyInnate(SystemScanners, 2))
	assert.Equal(t, 3, p.Get(SystemScanners))
	assert.ErrorIs(t, p.ModifyInnate("warp", 1), ErrUnknownSystem)

	require.NoError(t, p.AddSystem("sonar"))
	assert.Equal(t, 1, p.Max("sonar"))
	assert.ErrorIs(t, p.AddSystem("sonar"), ErrSystemExists)
}

func TestPower_Status(t *testing.T) {
	p := NewPower()
	require.NoError(t, p.Unschedule(SystemWeapons))

	status := p.Status()
	assert.Contains(t, status, "(3/3/3 used/available/max)")
	assert.Contains(t, status, "* **Engines** is online (0/1 with 1 innate)")
	assert.Contains(t, status, "* **Weapons** is online (1/1 with -1 scheduled)")
	assert.Contains(t, status, "* **Crane** is offline (0/1)")
}
