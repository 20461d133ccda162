package sections

import "fmt"

// Kind is a recognized section of a model response.
type Kind int

const (
	KindRoutes Kind = iota + 1
	KindControllers
	KindRepository
	KindService
	KindDIConfig
	KindTypes
	KindE2ETests
	KindMigrations
	KindAllAPIRoutes
	KindAllConstants
	KindAllDIConfig
	KindAllSeeds
)

// Buckets group routed paths for missing-file detection.
const (
	BucketRoutes       = "ROUTES"
	BucketControllers  = "CONTROLLERS"
	BucketRepository   = "REPOSITORY"
	BucketServices     = "SERVICES"
	BucketDIConfig     = "DI_CONFIG"
	BucketTypes        = "TYPES"
	BucketE2ETests     = "E2E_TESTS"
	BucketMigrations   = "MIGRATIONS"
	BucketAllAPIRoutes = "ALL_API_ROUTES"
	BucketAllConstants = "ALL_CONSTANTS"
	BucketAllDIConfig  = "ALL_DI_CONFIG"
	BucketAllSeeds     = "ALL_SEEDS"
)

var keywords = map[string]Kind{
	"ROUTES":               KindRoutes,
	"CONTROLLERS":          KindControllers,
	"REPOSITORY":           KindRepository,
	"SERVICE":              KindService,
	"DI_CONFIG":            KindDIConfig,
	"DEPENDENCY_INJECTION": KindDIConfig,
	"TYPES":                KindTypes,
	"E2E_TESTS":            KindE2ETests,
	"TESTS":                KindE2ETests,
	"MIGRATIONS":           KindMigrations,
	"ALL_API_ROUTES":       KindAllAPIRoutes,
	"ALL_CONSTANTS":        KindAllConstants,
	"ALL_DI_CONFIG":        KindAllDIConfig,
	"ALL_SEEDS":            KindAllSeeds,
}

// Kinds lists every section kind.
func Kinds() []Kind {
	return []Kind{
		KindRoutes, KindControllers, KindRepository, KindService,
		KindDIConfig, KindTypes, KindE2ETests, KindMigrations,
		KindAllAPIRoutes, KindAllConstants, KindAllDIConfig, KindAllSeeds,
	}
}

// ParseKind maps an upper-case header keyword to its kind.
func ParseKind(keyword string) (Kind, bool) {
	k, ok := keywords[keyword]
	return k, ok
}

// Bucket returns the bucket a kind's paths are tracked under.
func (k Kind) Bucket() string {
	switch k {
	case KindRoutes:
		return BucketRoutes
	case KindControllers:
		return BucketControllers
	case KindRepository:
		return BucketRepository
	case KindService:
		return BucketServices
	case KindDIConfig:
		return BucketDIConfig
	case KindTypes:
		return BucketTypes
	case KindE2ETests:
		return BucketE2ETests
	case KindMigrations:
		return BucketMigrations
	case KindAllAPIRoutes:
		return BucketAllAPIRoutes
	case KindAllConstants:
		return BucketAllConstants
	case KindAllDIConfig:
		return BucketAllDIConfig
	case KindAllSeeds:
		return BucketAllSeeds
	}
	return ""
}

func (k Kind) String() string {
	if k == KindService {
		return "SERVICE"
	}
	if b := k.Bucket(); b != "" {
		return b
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// RequiredBuckets are the buckets a complete module must produce, in the
// order they are reported. TYPES is routed but optional.
func RequiredBuckets() []string {
	return []string{
		BucketAllAPIRoutes,
		BucketAllConstants,
		BucketAllDIConfig,
		BucketAllSeeds,
		BucketControllers,
		BucketRepository,
		BucketDIConfig,
		BucketRoutes,
		BucketMigrations,
		BucketServices,
		BucketE2ETests,
	}
}
