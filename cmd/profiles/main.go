// The profiles command runs the user profiles HTTP service and, when
// GRPC_ADDRESS is set, its gRPC counterpart.
package main

import (
	"github.com/patric-chuzhbe/userprofiles/internal/app"
	"github.com/patric-chuzhbe/userprofiles/internal/logger"
)

func main() {
	theApp, err := app.New()
	if err != nil {
		panic(err)
	}
	defer theApp.Close()

	if err := theApp.Run(); err != nil {
		logger.Log.Errorln("service stopped with error", "error", err)
		panic(err)
	}
}
