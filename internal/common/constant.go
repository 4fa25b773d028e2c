package common

// AppName is used for the data directory name, the env prefix and log
// attributes.
const AppName = "totpkeeper"

// DataDirName is the default data directory, relative to the working
// directory, that holds the entry store and the settings file.
const DataDirName = "data"
