package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/any-hub/embed-responder/internal/asset"
	"github.com/any-hub/embed-responder/internal/compress"
	"github.com/any-hub/embed-responder/internal/config"
	"github.com/any-hub/embed-responder/internal/logging"
	"github.com/any-hub/embed-responder/internal/responder"
	"github.com/any-hub/embed-responder/internal/server"
	"github.com/any-hub/embed-responder/internal/server/routes"
	"github.com/any-hub/embed-responder/internal/site"
	"github.com/any-hub/embed-responder/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
	precompress bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["mode"] = cfg.Global.Mode
		fields["assets"] = assetsLabel(cfg.Global.AssetsPath)
		fields["routes"] = cfg.RouteSummaries()
		fields["compression"] = cfg.Global.Policy.String()
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.precompress {
		return runPrecompress(ctx, cfg, opts.configPath, logger)
	}

	// 启动顺序为“配置 → 资源源 → 压缩缓存/Responder → 路由表 → Fiber server”，
	// 所有路由共享同一个资源源与压缩缓存。
	source, err := buildSource(cfg, logger, time.Now())
	if err != nil {
		fmt.Fprintf(stdErr, "加载资源失败: %v\n", err)
		return 1
	}

	cache := compress.NewCache(compress.Options{
		Logger:            logger,
		MaxBytesPerFamily: cfg.Global.MaxCompressedCacheSize,
	})
	resp := responder.New(responder.Options{
		Cache:     cache,
		Encodings: cfg.Global.Encodings,
		Logger:    logger,
	})

	table, err := server.NewRouteTable(cfg)
	if err != nil {
		fmt.Fprintf(stdErr, "构建路由表失败: %v\n", err)
		return 1
	}

	fields := logging.BaseFields("startup", opts.configPath)
	fields["mode"] = cfg.Global.Mode
	fields["assets"] = assetsLabel(cfg.Global.AssetsPath)
	fields["listen_port"] = cfg.Global.ListenPort
	fields["routes"] = cfg.RouteSummaries()
	fields["compression"] = cfg.Global.Policy.String()
	fields["version"] = version.Full()
	if count, ok := assetCount(source); ok {
		fields["asset_count"] = count
	}
	logger.WithFields(fields).Info("配置加载完成")

	if err := startHTTPServer(ctx, cfg, table, source, resp, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("embed-responder", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag  string
		checkOnly   bool
		showVer     bool
		precompress bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 EMBED_RESPONDER_CONFIG 覆盖）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")
	fs.BoolVar(&precompress, "precompress", false, "为 AssetsPath 下的文件生成 .gz/.br/.zst 旁路文件后退出")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("EMBED_RESPONDER_CONFIG")
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		path = "config.toml"
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		showVersion: showVer,
		precompress: precompress,
	}, nil
}

// buildSource 按 Mode 选择加载器；未配置 AssetsPath 时使用内置演示站点。
// embed.FS 不提供修改时间，以进程启动时间代替。
func buildSource(cfg *config.Config, logger *logrus.Logger, started time.Time) (asset.Source, error) {
	var fsys fs.FS
	if cfg.Global.AssetsPath != "" {
		fsys = os.DirFS(cfg.Global.AssetsPath)
	} else {
		fsys = site.FS()
	}
	return asset.Load(cfg.Global.Mode, fsys, asset.BuildOptions{
		Precompress:     cfg.Global.Precompress,
		FallbackModTime: started.UTC().Truncate(time.Second),
		Logger:          logger,
	})
}

func runPrecompress(ctx context.Context, cfg *config.Config, configPath string, logger *logrus.Logger) int {
	if cfg.Global.AssetsPath == "" {
		fmt.Fprintln(stdErr, "预压缩需要配置 AssetsPath")
		return 1
	}
	report, err := asset.WriteSidecars(ctx, cfg.Global.AssetsPath, cfg.Global.Precompress, logger)
	if err != nil {
		fmt.Fprintf(stdErr, "预压缩失败: %v\n", err)
		return 1
	}
	fields := logging.BaseFields("precompress", configPath)
	fields["assets"] = cfg.Global.AssetsPath
	fields["files"] = report.Files
	fields["written"] = report.Written
	fields["skipped"] = report.Skipped
	logger.WithFields(fields).Info("预压缩完成")
	return 0
}

func startHTTPServer(
	ctx context.Context,
	cfg *config.Config,
	table *server.RouteTable,
	source asset.Source,
	resp *responder.Responder,
	logger *logrus.Logger,
) error {
	port := cfg.Global.ListenPort
	handler, err := server.NewHandler(server.HandlerOptions{
		Source:    source,
		Responder: resp,
		Logger:    logger,
		IndexFile: cfg.Global.IndexFile,
	})
	if err != nil {
		return err
	}
	app, err := server.NewApp(server.AppOptions{
		Logger:     logger,
		Routes:     table,
		Handler:    handler,
		ListenPort: port,
	})
	if err != nil {
		return err
	}
	routes.RegisterDiagnosticsRoutes(app, routes.DiagnosticsOptions{
		Mode:   cfg.Global.Mode,
		Source: source,
		Cache:  resp.Cache(),
		Routes: table,
	})

	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("Fiber 服务启动")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Listen(fmt.Sprintf(":%d", port))
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.WithFields(logrus.Fields{
			"action":  "shutdown",
			"timeout": cfg.Global.ShutdownTimeout.DurationValue().String(),
		}).Info("Fiber 服务停止")
		return app.ShutdownWithTimeout(cfg.Global.ShutdownTimeout.DurationValue())
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// assetCount 返回可枚举资源源的资源数；live 模式不可枚举。
func assetCount(source asset.Source) (int, bool) {
	counter, ok := source.(interface{ Len() int })
	if !ok {
		return 0, false
	}
	return counter.Len(), true
}

func assetsLabel(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}
