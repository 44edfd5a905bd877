package main

// General API documentation for swaggo. The rendered document lives in
// internal/apidocs; keep both in sync when routes change.
//
// @title           expertchat API
// @version         1.0
// @description     Chat with fine-tuned expert models. One expert is resident at a time.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
