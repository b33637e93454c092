package main

// General API documentation for swaggo. Run `make swagger-gen` to regenerate
// internal/httpapi/docs.
//
// @title           upscaled API
// @version         1.0
// @description     HTTP API for image super-resolution with a persistent result cache.
//
// @contact.name   upscaled maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
