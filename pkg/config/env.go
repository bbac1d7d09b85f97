package config

// EnvPrefix is passed to envconfig; individual fields carry fully qualified
// names so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "ARTMARKET_DB_DSN"
	EnvDBHost = "ARTMARKET_DB_HOST"
	EnvDBUser = "ARTMARKET_DB_USER"
	EnvDBName = "ARTMARKET_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
