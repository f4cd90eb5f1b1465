package generator

import (
	"math"
	"time"

	"github.com/openledger/generator/internal/domain"
)

var (
	countries          = []string{"CA", "US", "GB", "AU", "NZ"}
	merchantCategories = []string{"grocery", "electronics", "travel", "dining", "apparel", "entertainment", "utilities"}
	nameAdjectives     = []string{"Maple", "Northern", "Harbour", "Summit", "Prairie", "Coastal", "Golden", "Silver", "Cedar", "Urban"}
	nameNouns          = []string{"Market", "Outfitters", "Supply", "Kitchen", "Travel", "Electric", "Goods", "Cafe", "Works", "Trading"}
	nameSuffixes       = []string{"Inc.", "Ltd.", "Co.", "Group", "LLC"}
)

const (
	userIDPrefix     = "user_"
	merchantIDPrefix = "merchant_"
	idSuffixLen      = 8

	userRiskMax     = 0.2
	merchantRiskMax = 0.1
	primaryCurrency = "CAD"

	signupWindow = 365 * 24 * time.Hour
)

// GenerateUsers returns n users with unique ids, created within the year
// before asOf.
func GenerateUsers(rng *Rand, n int, asOf time.Time) []domain.User {
	seen := make(map[string]struct{}, n)
	users := make([]domain.User, 0, n)
	for i := 0; i < n; i++ {
		users = append(users, domain.User{
			ID:              uniqueID(rng, userIDPrefix, seen),
			CreatedAt:       asOf.Add(-signupWindow + rng.Duration(signupWindow)),
			Country:         pick(rng, countries),
			PrimaryCurrency: primaryCurrency,
			RiskScore:       round4(rng.Uniform(0, userRiskMax)),
		})
	}
	return users
}

// GenerateMerchants returns n merchants with unique ids.
func GenerateMerchants(rng *Rand, n int) []domain.Merchant {
	seen := make(map[string]struct{}, n)
	merchants := make([]domain.Merchant, 0, n)
	for i := 0; i < n; i++ {
		merchants = append(merchants, domain.Merchant{
			ID:        uniqueID(rng, merchantIDPrefix, seen),
			Name:      pick(rng, nameAdjectives) + " " + pick(rng, nameNouns) + " " + pick(rng, nameSuffixes),
			Category:  pick(rng, merchantCategories),
			Country:   pick(rng, countries),
			RiskScore: round4(rng.Uniform(0, merchantRiskMax)),
		})
	}
	return merchants
}

// uniqueID redraws on the (rare) suffix collision.
func uniqueID(rng *Rand, prefix string, seen map[string]struct{}) string {
	for {
		id := prefix + rng.Hex(idSuffixLen)
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			return id
		}
	}
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
