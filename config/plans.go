package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed plans.yaml
var defaultPlans []byte

// PlanLimits are the quotas a plan grants a workspace
type PlanLimits struct {
	Links   int   `yaml:"links"`
	Domains int   `yaml:"domains"`
	Users   int   `yaml:"users"`
	Payouts int64 `yaml:"payouts"`
	API     int   `yaml:"api"` // token requests per minute
}

// Plan is one entry of the plan catalog
type Plan struct {
	Name            string     `yaml:"name"`
	RazorpayPlanIDs []string   `yaml:"razorpayPlanIds"`
	Limits          PlanLimits `yaml:"limits"`
	PremiumDomain   bool       `yaml:"premiumDomain"`
}

// PlanCatalog resolves plans by name or by payment processor plan id
type PlanCatalog struct {
	plans      []Plan
	byName     map[string]Plan
	byRazorpay map[string]Plan
}

type planFile struct {
	Plans []Plan `yaml:"plans"`
}

// LoadPlans reads the catalog from path, or the built-in one when path is empty
func LoadPlans(path string) (*PlanCatalog, error) {
	data := defaultPlans
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read plans file: %v", err)
		}
		data = b
	}
	return ParsePlans(data)
}

// ParsePlans decodes a YAML plan catalog
func ParsePlans(data []byte) (*PlanCatalog, error) {
	var f planFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse plans: %v", err)
	}

	c := &PlanCatalog{
		plans:      f.Plans,
		byName:     make(map[string]Plan, len(f.Plans)),
		byRazorpay: make(map[string]Plan),
	}
	for _, p := range f.Plans {
		if p.Name == "" {
			return nil, fmt.Errorf("plan without a name")
		}
		if _, dup := c.byName[p.Name]; dup {
			return nil, fmt.Errorf("duplicate plan %q", p.Name)
		}
		c.byName[p.Name] = p
		for _, id := range p.RazorpayPlanIDs {
			if other, dup := c.byRazorpay[id]; dup {
				return nil, fmt.Errorf("razorpay plan %q mapped to both %q and %q", id, other.Name, p.Name)
			}
			c.byRazorpay[id] = p
		}
	}
	if _, ok := c.byName["free"]; !ok {
		return nil, fmt.Errorf("plan catalog must define a free plan")
	}
	return c, nil
}

// ByName returns the plan with the given name
func (c *PlanCatalog) ByName(name string) (Plan, bool) {
	p, ok := c.byName[name]
	return p, ok
}

// ByRazorpayPlan returns the plan sold under a Razorpay plan id
func (c *PlanCatalog) ByRazorpayPlan(planID string) (Plan, bool) {
	p, ok := c.byRazorpay[planID]
	return p, ok
}

// Free returns the fallback plan used on cancellation
func (c *PlanCatalog) Free() Plan {
	return c.byName["free"]
}

// Plans returns every plan in catalog order
func (c *PlanCatalog) Plans() []Plan {
	return append([]Plan(nil), c.plans...)
}
