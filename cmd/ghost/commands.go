package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ghost/internal/belief"
	"ghost/internal/emotion"
	"ghost/internal/llm"
	"ghost/internal/persist"
)

var personaPath string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the belief store with genesis identity and persona",
	Long: `Inserts the immutable identity facts and the starting persona
opinions into the belief store. Genesis facts can never be overwritten
by inference, so this defines who the agent is for its whole life.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := initLogging(cfg); err != nil {
			return err
		}

		store, err := belief.NewStore(cfg.BeliefDBPath())
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.Seed(cfg.Agent.Name, personaPath)
		if err != nil {
			return err
		}
		fmt.Printf("seeded %d genesis beliefs for %s\n", n, cfg.Agent.Name)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show persistent state and backend health",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("agent: %s\ndata dir: %s\n\n", cfg.Agent.Name, cfg.Agent.DataDir)

		// LLM backend.
		client := llm.NewOllamaClient(cfg.LLM)
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()
		if err := client.HealthCheck(ctx); err != nil {
			fmt.Printf("ollama: unreachable (%v)\n", err)
		} else {
			fmt.Printf("ollama: ok (%s)\n", cfg.LLM.Model)
		}

		// Beliefs.
		store, err := belief.NewStore(cfg.BeliefDBPath())
		if err != nil {
			fmt.Printf("beliefs: unavailable (%v)\n", err)
		} else {
			defer store.Close()
			if summary, err := store.Summary(); err == nil {
				fmt.Printf("beliefs: %s\n", summary)
			}
		}

		// Emotional state.
		var state struct {
			Pleasure   float64 `json:"pleasure"`
			Arousal    float64 `json:"arousal"`
			Dominance  float64 `json:"dominance"`
			GrudgeMode bool    `json:"grudge_mode"`
			Timestamp  string  `json:"timestamp"`
		}
		if err := persist.LoadJSON(cfg.EmotionStatePath(), &state); err != nil {
			fmt.Println("emotion: no persisted state")
		} else {
			desc := emotion.State{
				Pleasure:  state.Pleasure,
				Arousal:   state.Arousal,
				Dominance: state.Dominance,
			}
			fmt.Printf("emotion: %s (P=%.2f A=%.2f D=%.2f, grudge=%v)\n",
				desc.Description(), state.Pleasure, state.Arousal, state.Dominance, state.GrudgeMode)
		}

		// Drives.
		var bdiState struct {
			Needs map[string]struct {
				Value float64 `json:"value"`
			} `json:"needs"`
		}
		if err := persist.LoadJSON(cfg.BDIStatePath(), &bdiState); err != nil {
			fmt.Println("needs: no persisted state")
		} else {
			fmt.Print("needs:")
			for name, n := range bdiState.Needs {
				fmt.Printf(" %s=%.2f", name, n.Value)
			}
			fmt.Println()
		}
		return nil
	},
}

var exportPath string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the belief graph to JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := belief.NewStore(cfg.BeliefDBPath())
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Export(exportPath); err != nil {
			return err
		}
		fmt.Printf("beliefs exported to %s\n", exportPath)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&personaPath, "persona", "", "persona YAML file (optional)")
	exportCmd.Flags().StringVar(&exportPath, "out", "beliefs_export.json", "output path")
}
