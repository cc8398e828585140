package commands

import (
	"fmt"

	"github.com/de-tools/backcountry/pkg/runtime/terminal/export"
	"github.com/de-tools/backcountry/pkg/services/report"
	"github.com/de-tools/backcountry/pkg/store/bucket"
	"github.com/de-tools/backcountry/pkg/store/files"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type ReportCmd struct {
	env           *Env
	output        string
	templateDir   string
	chart         bool
	fromArchive   bool
	publishBucket string
	publishPrefix string
	summary       bool
}

func NewReportCmd(env *Env) *cobra.Command {
	rc := &ReportCmd{env: env}
	cmd := &cobra.Command{
		Use:   "report START [END | DATE...]",
		Short: "Render stored forecasts into an HTML report",
		Long: "Render stored forecasts into an HTML report.\n\n" +
			"One date reports that day, two dates an inclusive range and more dates exactly the dates listed.",
		Args: cobra.MinimumNArgs(1),
		RunE: rc.run,
	}

	cmd.Flags().StringVarP(&rc.output, "output", "o", "", "Output file (default <root>/reports/forecast_<start>_to_<end>.html)")
	cmd.Flags().StringVar(&rc.templateDir, "template-dir", "", "Directory holding daily_report.html (default <root>/templates)")
	cmd.Flags().BoolVar(&rc.chart, "chart", false, "Also write a snowfall chart next to the report")
	cmd.Flags().BoolVar(&rc.fromArchive, "from-archive", false, "Read forecasts from the DuckDB archive instead of JSON files")
	cmd.Flags().StringVar(&rc.publishBucket, "publish-bucket", "", "Upload the report to this S3 bucket")
	cmd.Flags().StringVar(&rc.publishPrefix, "publish-prefix", "", "Key prefix for uploads (default from config)")
	cmd.Flags().BoolVar(&rc.summary, "summary", false, "Print a text digest of the report")

	return cmd
}

func (rc *ReportCmd) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	settings := rc.env.Settings

	dates, err := report.ResolveDates(args)
	if err != nil {
		return err
	}

	var loader report.Loader
	if rc.fromArchive {
		db, archive, err := rc.env.openArchive()
		if err != nil {
			return err
		}
		defer db.Close()
		loader = report.NewArchiveLoader(archive.Forecasts)
	} else {
		loader = report.NewFileLoader(files.NewDailyStore(settings.DataDir))
	}

	templateDir := rc.templateDir
	if templateDir == "" {
		templateDir = settings.TemplatesDir
	}
	html := export.NewHTMLRenderer(templateDir)
	zerolog.Ctx(ctx).Debug().Str("template", html.TemplateSource()).Msg("using report template")

	opts := []report.ServiceOption{report.WithChart(export.NewChartRenderer())}
	if bucketName := rc.bucket(); bucketName != "" {
		prefix := rc.publishPrefix
		if prefix == "" {
			prefix = settings.Publish.Prefix
		}
		publisher, err := bucket.NewS3Publisher(ctx, bucket.Settings{
			Bucket: bucketName,
			Prefix: prefix,
			Region: settings.Publish.Region,
		})
		if err != nil {
			return err
		}
		opts = append(opts, report.WithPublisher(publisher))
	}

	svc := report.NewService(loader, html, settings.ReportsDir, opts...)
	out, err := svc.Generate(ctx, report.Options{Dates: dates, Output: rc.output, Chart: rc.chart})
	if err != nil {
		return err
	}

	fmt.Fprintln(rc.env.Out, report.Describe(out))
	if out.ChartPath != "" {
		fmt.Fprintf(rc.env.Out, "Chart written to %s\n", out.ChartPath)
	}
	for _, location := range out.Published {
		fmt.Fprintf(rc.env.Out, "Published %s\n", location)
	}
	if rc.summary {
		return export.NewReporter(rc.env.Out).Handle(out.Report)
	}
	return nil
}

func (rc *ReportCmd) bucket() string {
	if rc.publishBucket != "" {
		return rc.publishBucket
	}
	return rc.env.Settings.Publish.Bucket
}
