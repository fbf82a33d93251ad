package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/kurihiro0119/orthopairs/internal/domain"
	"github.com/kurihiro0119/orthopairs/pkg/client"
)

var speciesCmd = &cobra.Command{
	Use:   "species",
	Short: "List the species served by the read API",
	Args:  cobra.NoArgs,
	RunE:  runSpecies,
}

func init() {
	rootCmd.AddCommand(speciesCmd)
}

func apiClient(cmd *cobra.Command) (*client.Client, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return client.NewClient(cfg.APIEndpoint), nil
}

func runLookup(cmd *cobra.Command, args []string) error {
	c, err := apiClient(cmd)
	if err != nil {
		return err
	}
	code, kind, id := args[0], args[1], args[2]

	switch kind {
	case "homologs", "genes":
		var ids []domain.Identifier
		if kind == "homologs" {
			ids, err = c.GetProteinHomologs(code, id)
		} else {
			ids, err = c.GetGeneProteins(code, id)
		}
		if err != nil {
			return lookupError(err, code, id)
		}
		if outputJSON {
			return printJSON(ids)
		}
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Query", "Namespace", "Accession"})
		for _, v := range ids {
			table.Append([]string{id, v.Namespace, v.Accession})
		}
		table.Render()

	case "names":
		name, err := c.GetGeneName(code, id)
		if err != nil {
			return lookupError(err, code, id)
		}
		if outputJSON {
			return printJSON(map[string]string{"accession": id, "gene_name": name})
		}
		fmt.Printf("%s\t%s\n", id, color.GreenString(name))

	default:
		return fmt.Errorf("unknown lookup %q: use homologs, genes or names", kind)
	}
	return nil
}

func runSpecies(cmd *cobra.Command, args []string) error {
	c, err := apiClient(cmd)
	if err != nil {
		return err
	}
	list, err := c.ListSpecies()
	if err != nil {
		return err
	}
	if outputJSON {
		return printJSON(list)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Code", "Name", "Homologs", "Gene Proteins", "Gene Names"})
	for _, s := range list {
		table.Append([]string{s.Species.Code, s.Species.DisplayName(), mark(s.ProteinHomologs), mark(s.GeneProteins), mark(s.GeneNames)})
	}
	table.Render()
	return nil
}

func lookupError(err error, code, id string) error {
	if client.IsNotFound(err) {
		return fmt.Errorf("%s not found for species %s", id, code)
	}
	return err
}

func mark(ok bool) string {
	if ok {
		return color.GreenString("yes")
	}
	return color.RedString("no")
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
