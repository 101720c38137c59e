package globals

import "github.com/hashicorp/go-hclog"

var AppLogger = hclog.New(&hclog.LoggerOptions{
	Name:  "classchat",
	Level: hclog.LevelFromString("INFO"),
})
