package config

import "errors"

var ErrMongoURIRequired = errors.New("MONGODB_URI is required when STORE_DRIVER=mongo")
