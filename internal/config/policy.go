package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// BusinessInfo is the venue identity snapshotted onto every receipt.
type BusinessInfo struct {
	Name    string `mapstructure:"name"`
	Address string `mapstructure:"address"`
	Phone   string `mapstructure:"phone"`
	Email   string `mapstructure:"email"`
	TaxID   string `mapstructure:"taxId"`
}

// VenuePolicy holds the financial policy applied to every order and receipt.
type VenuePolicy struct {
	TaxRate           decimal.Decimal
	ServiceChargeRate decimal.Decimal
	ReceiptVoidWindow time.Duration
	Business          BusinessInfo
}

type rawPolicy struct {
	TaxRate              string       `mapstructure:"taxRate"`
	ServiceChargeRate    string       `mapstructure:"serviceChargeRate"`
	ReceiptVoidWindowHrs int          `mapstructure:"receiptVoidWindowHours"`
	Business             BusinessInfo `mapstructure:"business"`
}

// DefaultVenuePolicy returns the policy used when no policy file is mounted:
// 16% VAT, 10% dine-in service charge, 24h receipt void window.
func DefaultVenuePolicy() VenuePolicy {
	return VenuePolicy{
		TaxRate:           decimal.RequireFromString("0.16"),
		ServiceChargeRate: decimal.RequireFromString("0.10"),
		ReceiptVoidWindow: 24 * time.Hour,
		Business: BusinessInfo{
			Name:    "Maria Havens Hotel",
			Address: "Nairobi, Kenya",
			Phone:   "+254700000000",
			Email:   "info@mariahavens.com",
			TaxID:   "PIN: P051234567A",
		},
	}
}

// PolicyHolder keeps the current VenuePolicy and hot-reloads it when the
// policy file changes on disk.
type PolicyHolder struct {
	current atomic.Value // holds VenuePolicy
}

func NewPolicyHolder() (*PolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("policy")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/havens-pos/config")
	v.AddConfigPath("/etc/havens-pos")
	v.AddConfigPath(".")

	v.SetEnvPrefix("HAVENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	holder := &PolicyHolder{}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		holder.current.Store(DefaultVenuePolicy())
		return holder, nil
	}

	policy, err := parsePolicy(v)
	if err != nil {
		return nil, err
	}
	holder.current.Store(policy)

	v.WatchConfig()
	v.OnConfigChange(func(fsnotify.Event) {
		reloaded, err := parsePolicy(v)
		if err != nil {
			log.Printf("policy reload rejected: %v", err)
			return
		}
		holder.current.Store(reloaded)
	})

	return holder, nil
}

// NewStaticPolicyHolder wraps a fixed policy without file watching. Intended
// for tests and tooling.
func NewStaticPolicyHolder(policy VenuePolicy) *PolicyHolder {
	holder := &PolicyHolder{}
	holder.current.Store(policy)
	return holder
}

// Current returns the active policy.
func (h *PolicyHolder) Current() VenuePolicy {
	return h.current.Load().(VenuePolicy)
}

func parsePolicy(v *viper.Viper) (VenuePolicy, error) {
	var raw rawPolicy
	if err := v.UnmarshalKey("policy", &raw); err != nil {
		return VenuePolicy{}, err
	}

	policy := DefaultVenuePolicy()

	if raw.TaxRate != "" {
		rate, err := decimal.NewFromString(raw.TaxRate)
		if err != nil {
			return VenuePolicy{}, err
		}
		policy.TaxRate = rate
	}
	if raw.ServiceChargeRate != "" {
		rate, err := decimal.NewFromString(raw.ServiceChargeRate)
		if err != nil {
			return VenuePolicy{}, err
		}
		policy.ServiceChargeRate = rate
	}
	if raw.ReceiptVoidWindowHrs > 0 {
		policy.ReceiptVoidWindow = time.Duration(raw.ReceiptVoidWindowHrs) * time.Hour
	}
	if raw.Business.Name != "" {
		policy.Business = raw.Business
	}

	return policy, validatePolicy(policy)
}

func validatePolicy(policy VenuePolicy) error {
	if policy.TaxRate.IsNegative() || policy.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		return errors.New("tax rate must be between 0 and 1")
	}
	if policy.ServiceChargeRate.IsNegative() || policy.ServiceChargeRate.GreaterThan(decimal.NewFromInt(1)) {
		return errors.New("service charge rate must be between 0 and 1")
	}
	if policy.ReceiptVoidWindow <= 0 {
		return errors.New("receipt void window must be positive")
	}
	return nil
}
