package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type HTTPServer struct {
	Host string
	Port string
}

type PhaseDefaults struct {
	CreateMin  int
	VotingMin  int
	DiscussMin int
	MaxVotes   int
}

type Storage struct {
	StateFile string
}

type Config struct {
	HTTP    HTTPServer
	Phases  PhaseDefaults
	Storage Storage
}

const logtag = "[config]"

func Load() *Config {
	configPath := flag.String("config", "", "path env file")
	flag.Parse()

	if *configPath != "" {
		if err := godotenv.Load(*configPath); err != nil {
			log.Fatalf("%s err loading env from file : %v", logtag, err)
		}
		log.Printf("%s using env from : %s", logtag, *configPath)
	} else {
		log.Printf("%s using env from .env", logtag)
		_ = godotenv.Load()
	}

	cfg := &Config{
		HTTP:    *newHTTP(),
		Phases:  *newPhaseDefaults(),
		Storage: *newStorage(),
	}

	log.Printf("%s backend config : %+v\n", logtag, cfg)
	return cfg
}

func newHTTP() *HTTPServer {
	return &HTTPServer{
		Port: getenv("PORT", "3000"),
		Host: getenv("HTTP_HOST", "0.0.0.0"),
	}
}

func newPhaseDefaults() *PhaseDefaults {
	return &PhaseDefaults{
		CreateMin:  getenvInt("DEFAULT_CREATE_MIN", 5),
		VotingMin:  getenvInt("DEFAULT_VOTING_MIN", 3),
		DiscussMin: getenvInt("DEFAULT_DISCUSS_MIN", 5),
		MaxVotes:   getenvInt("MAX_VOTES", 3),
	}
}

func newStorage() *Storage {
	return &Storage{
		StateFile: getenv("STATE_FILE", "data/state.json"),
	}
}

func getenv(key, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		fmt.Printf("%s %s undefined. Using default value %s\n", logtag, key, defaultValue)
		return defaultValue
	}
	fmt.Printf("%s %s = %s\n", logtag, key, val)
	return val
}

func getenvInt(key string, defaultValue int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		fmt.Printf("%s %s is not a number. Using default value %d\n", logtag, key, defaultValue)
		return defaultValue
	}
	return n
}
