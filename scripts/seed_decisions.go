// seed_decisions.go: standalone script to load decisions from a YAML file and create them via the Arbiter API.
//
// Usage:
//
//	go run scripts/seed_decisions.go -file decisions.yaml -api http://localhost:8700 -analyze ahp
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Arbiter/internal/analysis"
)

type seedDecision struct {
	Title          string                     `yaml:"title" json:"title"`
	Description    string                     `yaml:"description,omitempty" json:"description,omitempty"`
	Owner          string                     `yaml:"owner,omitempty" json:"owner,omitempty"`
	Status         string                     `yaml:"status,omitempty" json:"status,omitempty"`
	Criteria       []analysis.Criterion       `yaml:"criteria" json:"criteria"`
	Options        []analysis.Option          `yaml:"options" json:"options"`
	Weights        analysis.Weights           `yaml:"weights,omitempty" json:"weights,omitempty"`
	CriteriaMatrix analysis.Matrix            `yaml:"criteria_matrix,omitempty" json:"criteria_matrix,omitempty"`
	OptionMatrices map[string]analysis.Matrix `yaml:"option_matrices,omitempty" json:"option_matrices,omitempty"`
}

type seedFile struct {
	Decisions []seedDecision `yaml:"decisions"`
}

func main() {
	path := flag.String("file", "decisions.yaml", "path to decisions YAML file")
	apiURL := flag.String("api", "http://localhost:8700", "Arbiter API base URL")
	clientID := flag.String("client", "seed", "X-Client-ID header value")
	method := flag.String("analyze", "", "analyze each decision after creating it (simple, ahp, topsis)")
	dryRun := flag.Bool("dry-run", false, "print decisions without posting")
	flag.Parse()

	data, err := os.ReadFile(*path)
	if err != nil {
		log.Fatalf("read %s: %v", *path, err)
	}
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		log.Fatalf("parse %s: %v", *path, err)
	}
	if *method != "" {
		if _, err := analysis.ParseMethod(*method); err != nil {
			log.Fatalf("-analyze: %v", err)
		}
	}

	log.Printf("parsed %d decisions from %s", len(file.Decisions), *path)

	if *dryRun {
		for i, d := range file.Decisions {
			fmt.Printf("[%d] %s (criteria=%d, options=%d, owner=%s)\n", i+1, d.Title, len(d.Criteria), len(d.Options), d.Owner)
		}
		return
	}

	client := &http.Client{}
	created, analyzed, skipped := 0, 0, 0
	for _, d := range file.Decisions {
		var out struct {
			ID string `json:"id"`
		}
		status, err := post(client, *apiURL+"/api/v1/decisions", *clientID, d, &out)
		if err != nil || status != http.StatusCreated {
			log.Printf("skip %q: status %d: %v", d.Title, status, err)
			skipped++
			continue
		}
		created++

		if *method == "" {
			continue
		}
		status, err = post(client, *apiURL+"/api/v1/decisions/"+out.ID+"/analyze", *clientID,
			map[string]string{"method": *method}, nil)
		if err != nil || status != http.StatusCreated {
			log.Printf("analyze %q: status %d: %v", d.Title, status, err)
			continue
		}
		analyzed++
	}

	log.Printf("done: %d created, %d analyzed, %d skipped", created, analyzed, skipped)
}

func post(client *http.Client, url, clientID string, body, out interface{}) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequest("POST", url, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Client-ID", clientID)

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}
