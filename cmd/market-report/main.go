package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"agropulse/internal/bootstrap"
	"agropulse/internal/config"
	"agropulse/internal/jobs"
	"agropulse/internal/services/market"

	"github.com/joho/godotenv"
)

var (
	dataPath    = flag.String("data", "", "market CSV/XLSX (default from MARKET_DATA_PATH)")
	outDir      = flag.String("out", "", "output directory (default from REPORT_DIR)")
	commodities = flag.String("commodities", "", "comma separated commodities, all when empty")
	region      = flag.String("region", "", "print a query summary for this state")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if *dataPath != "" {
		cfg.MarketDataPath = *dataPath
	}
	if *outDir != "" {
		cfg.ReportDir = *outDir
	}

	table, err := market.Load(cfg.MarketDataPath)
	if err != nil {
		log.Fatal(err)
	}
	opts, err := bootstrap.MarketOptions(cfg)
	if err != nil {
		log.Fatal(err)
	}

	var list []string
	for _, c := range strings.Split(*commodities, ",") {
		if c = strings.TrimSpace(c); c != "" {
			list = append(list, c)
		}
	}

	job := &jobs.MarketReport{Table: table, Dir: cfg.ReportDir, Commodities: list, Options: opts}
	path, err := job.Run()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(path)

	for _, c := range list {
		res := market.Query(table, c, *region, opts)
		if res.Insights == nil {
			fmt.Printf("%-16s %s\n", c, res.Status)
			continue
		}
		fmt.Printf("%-16s current %.2f  avg %.2f  volatility %.2f  %s\n",
			c, res.Insights.CurrentModal, res.Insights.AvgPrice, res.Insights.Volatility, res.Insights.TrendSentiment)
	}
}
