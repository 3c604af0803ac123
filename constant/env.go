package constant

const EnvPrefix = "RETLS_"
