package main

import "github.com/killallgit/wavepng/cmd"

// @title           wavepng API
// @version         1.0.0
// @description     Renders audio waveforms to PNG images
// @contact.name    API Support
// @contact.url     https://github.com/killallgit/wavepng
// @license.name    MIT
// @license.url     https://opensource.org/licenses/MIT
// @host            localhost:8080
// @BasePath        /
// @schemes         http https
func main() {
	cmd.Execute()
}
