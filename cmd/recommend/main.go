package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"agropulse/internal/bootstrap"
	"agropulse/internal/config"
	"agropulse/internal/services/cropadvisor"

	"github.com/joho/godotenv"
)

var (
	sample   cropadvisor.Sample
	research = flag.Bool("research", false, "enrich the description with a live research note")
	compact  = flag.Bool("compact", false, "print single-line JSON")
)

// measurement registers a float flag that stays nil unless given.
func measurement(name, usage string, dst **float64) {
	flag.Func(name, usage, func(s string) error {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*dst = &v
		return nil
	})
}

func main() {
	measurement("n", "nitrogen (kg/ha)", &sample.Nitrogen)
	measurement("p", "phosphorus (kg/ha)", &sample.Phosphorus)
	measurement("k", "potassium (kg/ha)", &sample.Potassium)
	measurement("temperature", "temperature (°C)", &sample.Temperature)
	measurement("humidity", "relative humidity (%)", &sample.Humidity)
	measurement("ph", "soil pH", &sample.PH)
	measurement("rainfall", "rainfall (mm)", &sample.Rainfall)
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	log.SetOutput(os.Stderr)

	var researcher cropadvisor.Researcher
	if *research {
		researcher = bootstrap.Researcher(cfg)
	}
	ctx := context.Background()
	adv, _, err := bootstrap.Advisor(ctx, cfg, researcher)
	if err != nil {
		log.Fatal(err)
	}

	res := adv.Recommend(ctx, sample)
	enc := json.NewEncoder(os.Stdout)
	if !*compact {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(res); err != nil {
		log.Fatal(err)
	}
	if res.Status != cropadvisor.StatusSuccess {
		fmt.Fprintln(os.Stderr, res.Message)
		os.Exit(1)
	}
}
