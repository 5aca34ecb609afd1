package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ikkim/venue-backend/config"
	"github.com/ikkim/venue-backend/internal/app/model"
	"github.com/ikkim/venue-backend/internal/app/repository"
	"github.com/ikkim/venue-backend/internal/db"
	"github.com/ikkim/venue-backend/internal/importer"
	"github.com/ikkim/venue-backend/internal/storage"
	"github.com/ikkim/venue-backend/pkg/logger"
)

const schemaVersion = "1.0"

func main() {
	var (
		target  = flag.String("to", "file", "output: file, database or s3")
		out     = flag.String("out", "data/venues.json", "output path when -to=file")
		s3Key   = flag.String("key", "", "object key when -to=s3 (defaults to DATASET_S3_KEY)")
		version = flag.String("version", time.Now().Format("2006.01.02"), "dataset version")
		source  = flag.String("source", "", "data_source recorded in the metadata")
		yes     = flag.Bool("y", false, "skip the confirmation prompt")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: import [flags] <xlsx_file_path>\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	logger.Initialize(logger.Config{Level: "info", Format: "console", EnableColor: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	f, err := os.Open(path)
	if err != nil {
		logger.Fatal("Failed to open workbook", err, map[string]interface{}{"path": path})
	}
	defer f.Close()

	dataSource := *source
	if dataSource == "" {
		dataSource = path
	}
	result, err := importer.ParseWorkbook(f, model.DatasetMetadata{
		DataSource:    dataSource,
		ExportDate:    time.Now().Format(time.RFC3339),
		Version:       *version,
		SchemaVersion: schemaVersion,
	})
	if err != nil {
		logger.Fatal("Failed to parse workbook", err, map[string]interface{}{"path": path})
	}

	fmt.Printf("\n=== Import Summary ===\n")
	fmt.Printf("Venue rows: %d\n", result.Summary.VenueRows)
	fmt.Printf("Venues:     %d\n", result.Summary.Venues)
	fmt.Printf("Rooms:      %d\n", result.Summary.Rooms)
	fmt.Printf("Stations:   %d\n", result.Summary.Stations)
	fmt.Printf("Skipped:    %d\n", result.Summary.Skipped)

	if !*yes && !confirm(fmt.Sprintf("Write %d venues to %s?", result.Summary.Venues, *target)) {
		fmt.Println("Import cancelled.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	switch *target {
	case "file":
		err = writeFile(result.Dataset, *out)
	case "database":
		err = writeDatabase(ctx, cfg, result.Dataset)
	case "s3":
		key := *s3Key
		if key == "" {
			key = cfg.Dataset.S3Key
		}
		err = writeS3(ctx, cfg, result.Dataset, key)
	default:
		err = fmt.Errorf("unknown target %q", *target)
	}
	if err != nil {
		logger.Fatal("Import failed", err, map[string]interface{}{"target": *target})
	}

	logger.Info("Import completed", map[string]interface{}{
		"target": *target,
		"venues": result.Summary.Venues,
	})
}

func confirm(question string) bool {
	fmt.Printf("%s (yes/no): ", question)
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "yes" || answer == "y"
}

func writeFile(ds *model.VenueDataset, path string) error {
	data, err := repository.EncodeDataset(ds)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func writeDatabase(ctx context.Context, cfg *config.Config, ds *model.VenueDataset) error {
	conn, err := db.Initialize(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.MigrateDB(conn); err != nil {
		return err
	}
	store := repository.NewVenueStore(conn)
	if err := store.ReplaceAll(ctx, ds); err != nil {
		return err
	}

	count, err := store.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Venues in database: %d\n", count)
	return nil
}

func writeS3(ctx context.Context, cfg *config.Config, ds *model.VenueDataset, key string) error {
	data, err := repository.EncodeDataset(ds)
	if err != nil {
		return err
	}
	s3 := storage.NewS3Storage(ctx, cfg.S3.Region, cfg.S3.Bucket, cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey)
	if err := s3.PutObject(ctx, key, data); err != nil {
		return err
	}
	logger.Info("Dataset published to S3", map[string]interface{}{
		"bucket": s3.Bucket(),
		"key":    key,
		"bytes":  len(data),
	})
	return nil
}
