package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kwv/mapalign"
)

// Version is set at build time via -ldflags
var Version = "dev"

var (
	mapFile    = flag.String("map", "map.yaml", "Path to map description file")
	configFile = flag.String("config", "", "Path to bridge configuration file (enables MQTT bridge mode)")
	checkOnly  = flag.Bool("check", false, "Validate the map description and exit")
	queryPoint = flag.String("point", "", "Transform a single point X,Y and exit")
	toRobot    = flag.Bool("to-robot", false, "Transform -point from reference to robot coordinates (default: robot to reference)")
)

func main() {
	flag.Parse()
	fmt.Printf("mapalign version: %s\n", Version)

	doc, err := os.ReadFile(*mapFile)
	if err != nil {
		log.Fatalf("Failed to read map description %s: %v", *mapFile, err)
	}

	transformer := mapalign.New()
	if err := transformer.Load(doc); err != nil {
		log.Fatalf("Failed to load map description: %v", err)
	}
	printSummary(transformer)

	if *checkOnly {
		fmt.Println("Map description is valid")
		return
	}

	if *queryPoint != "" {
		runQuery(transformer, *queryPoint, *toRobot)
		return
	}

	if *configFile == "" {
		fmt.Println("\nUse --check to validate a map description")
		fmt.Println("Use --point=X,Y to transform a single point")
		fmt.Println("Use --config=bridge.yaml to run the MQTT pose bridge")
		return
	}

	runBridge(transformer, *configFile)
}

func printSummary(transformer *mapalign.Transformer) {
	refMap, _ := transformer.RefMap()
	robotMap, _ := transformer.RobotMap()
	triangles, _ := transformer.TriangleIndices()
	topLeft, bottomRight, _ := transformer.BoundingBox()

	fmt.Printf("Reference map: %s (%gx%g)\n", refMap.Name, refMap.Size.X, refMap.Size.Y)
	fmt.Printf("Robot map: %s (%gx%g)\n", robotMap.Name, robotMap.Size.X, robotMap.Size.Y)
	fmt.Printf("Triangulated region: %d triangles\n", len(triangles))
	fmt.Printf("Bounding box: (%g, %g) to (%g, %g)\n",
		topLeft.X, topLeft.Y, bottomRight.X, bottomRight.Y)
}

// runQuery transforms one point given as "X,Y" and prints the result
func runQuery(transformer *mapalign.Transformer, arg string, toRobot bool) {
	var p mapalign.Point
	if _, err := fmt.Sscanf(arg, "%f,%f", &p.X, &p.Y); err != nil {
		log.Fatalf("Invalid point %q (expected X,Y): %v", arg, err)
	}

	var mapped mapalign.Point
	var err error
	if toRobot {
		mapped, err = transformer.ToRobot(p)
	} else {
		mapped, err = transformer.ToRef(p)
	}
	if err != nil {
		log.Fatalf("Transform failed: %v", err)
	}

	fmt.Printf("(%g, %g) -> (%g, %g)\n", p.X, p.Y, mapped.X, mapped.Y)
}

// runBridge starts the MQTT pose bridge and blocks until interrupted
func runBridge(transformer *mapalign.Transformer, configPath string) {
	cfg, err := mapalign.LoadBridgeConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load bridge config: %v", err)
	}

	bridge := mapalign.NewPoseBridge(*cfg, transformer)
	if err := bridge.Start(); err != nil {
		log.Fatalf("Failed to start pose bridge: %v", err)
	}

	fmt.Printf("\nBridging %s -> %s via %s\n", cfg.PoseTopic, cfg.PublishTopic, cfg.Broker)
	fmt.Println("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\nShutting down pose bridge...")
	bridge.Stop()
	fmt.Println("Stopped")
}
