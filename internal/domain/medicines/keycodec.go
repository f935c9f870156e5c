package medicines

import "net/url"

// El cliente original codificaba el nombre como segmento de path
// sustituyendo espacios por "_", lo que colisiona "a_b" con "a b".
// Acá usamos percent-encoding reversible; los datos viejos con "_"
// decodifican igual a sí mismos, así que la lectura no se rompe.

func encodeName(name string) string {
	return url.PathEscape(name)
}

func decodeName(key string) (string, error) {
	return url.PathUnescape(key)
}
