package deepface_test

import (
	"context"
	"fmt"
	"log"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/facegate/internal/similarity"
)

func ExampleProvider_Analyze() {
	provider := deepface.NewProvider(deepface.DefaultConfig())

	// Frame bytes (in practice, read from the camera or an HTTP request)
	var frame []byte

	for ev := range provider.Analyze(context.Background(), frame) {
		switch ev.Status {
		case domain.AnalysisLoading:
			fmt.Println("analyzing...")
		case domain.AnalysisSuccess:
			fmt.Printf("face crop: %d bytes\n", len(ev.Face))
		case domain.AnalysisError:
			fmt.Println("analysis failed:", ev.Message)
		}
	}
}

func ExampleProvider_Embed() {
	provider := deepface.NewProvider(deepface.DefaultConfig())

	var enrolled, live []byte

	e1, err := provider.Embed(context.Background(), enrolled)
	if err != nil {
		log.Fatal(err)
	}
	e2, err := provider.Embed(context.Background(), live)
	if err != nil {
		log.Fatal(err)
	}

	score, err := similarity.Cosine(e1, e2)
	if err != nil {
		log.Fatal(err)
	}

	threshold := 0.5
	if score >= threshold {
		fmt.Printf("MATCH: similarity=%.4f (>= %.2f)\n", score, threshold)
	} else {
		fmt.Printf("NO MATCH: similarity=%.4f (< %.2f)\n", score, threshold)
	}
}
