package handlers

import (
	_ "embed"
	"fmt"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// API docs
// ============================================================

// SpecPath: маршрут, по которому шлюз отдаёт OpenAPI документ сметчика.
const SpecPath = "/docs/openapi.yaml"

//go:embed docs/estimator.openapi.yaml
var openAPISpec []byte

// SwaggerSpec отдаёт OpenAPI YAML.
func SwaggerSpec(c fiber.Ctx) error {
	c.Type("yaml")
	return c.Send(openAPISpec)
}

// Операции сгруппированы тегами по порядку работы со сметой:
// проект, разметка, калибровка, помещения, каталог, отчёты, выгрузка.
var docsPage = fmt.Sprintf(`<!doctype html>
<html lang="ru">
<head>
  <meta charset="utf-8">
  <title>Сметчик ремонта: API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist/swagger-ui.css">
  <style>.topbar { display: none; }</style>
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist/swagger-ui-bundle.js"></script>
<script>
  const tagOrder = ['projects', 'drawing', 'calibration', 'rooms', 'catalog', 'reports', 'export'];
  window.onload = () => {
    window.ui = SwaggerUIBundle({
      url: '%s',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      deepLinking: true,
      docExpansion: 'list',
      defaultModelsExpandDepth: -1,
      tagsSorter: (a, b) => tagOrder.indexOf(a) - tagOrder.indexOf(b),
    });
  };
</script>
</body>
</html>`, SpecPath)

// SwaggerUI отдаёт страницу документации сметчика.
func SwaggerUI(c fiber.Ctx) error {
	c.Type("html")
	return c.SendString(docsPage)
}
