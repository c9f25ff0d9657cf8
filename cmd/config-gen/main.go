// A simple utility for generating random port numbers in the config files.
//
// When run from the root directory, this utility will overwrite the addresses in
// config/*.json with addresses of the format :*, referring to a pseudo-randomly selected
// local port (above 1024).
// This can be used during testing on shared servers, to (try and) avoid port collisions.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"

	"example.org/hashsearch"
	"github.com/DistributedClocks/tracing"
)

func genPort() int32 {
	return rand.Int31n(35535-1024) + 1024
}

func updateConfig(fileName string, emptyConfig interface{}, updateFn func()) {
	path := filepath.Join("config", fileName)
	if err := hashsearch.ReadJSONConfig(path, emptyConfig); err != nil {
		log.Fatal(err)
	}
	updateFn()
	fileWrite, err := os.Create(path)
	if err != nil {
		log.Fatal(err)
	}
	defer fileWrite.Close()
	encoder := json.NewEncoder(fileWrite)
	encoder.SetIndent("", "\t")
	if err := encoder.Encode(emptyConfig); err != nil {
		log.Fatal(err)
	}
}

func main() {
	traceServerAddr := fmt.Sprintf("localhost:%v", genPort())
	metricsAddr := fmt.Sprintf("localhost:%v", genPort())

	traceServerConfig := &tracing.TracingServerConfig{}
	updateConfig("tracing_server_config.json", traceServerConfig, func() {
		traceServerConfig.ServerBind = traceServerAddr
	})

	searchConfig := &hashsearch.SearchConfig{}
	updateConfig("hashsearch_config.json", searchConfig, func() {
		searchConfig.TracerServerAddr = traceServerAddr
		searchConfig.MetricsListenAddr = metricsAddr
	})
}
